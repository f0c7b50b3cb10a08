package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/dbmcp/core/application/services"
	"github.com/hyperterse/dbmcp/core/infrastructure/auth"
	"github.com/hyperterse/dbmcp/core/infrastructure/connectors"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

const testToken = "test-token-123"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	manager := connectors.NewConnectorManager()
	require.NoError(t, manager.ConnectWithDSN(context.Background(), "sqlite://:memory:"))
	t.Cleanup(func() { _ = manager.Disconnect() })

	service := services.NewSQLService(manager.Current(), false)
	_, err := service.ExecuteSQL(context.Background(), "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT); INSERT INTO items (name) VALUES ('alpha')")
	require.NoError(t, err)

	adapter, err := mcp.New(service, mcp.Options{Version: "test"})
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(adapter, opts).Router())
	t.Cleanup(ts.Close)
	return ts
}

func toolCallBody(id int, sql string) string {
	args, _ := json.Marshal(map[string]any{"sql": sql})
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"execute_sql","arguments":%s}}`, id, args)
}

func post(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/message", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type rpcResponse struct {
	ID     int `json:"id"`
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
}

func decodeRPC(t *testing.T, body io.Reader) rpcResponse {
	t.Helper()
	var out rpcResponse
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestMessage_JSONToolCall(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp := post(t, ts.URL, toolCallBody(1, "SELECT name FROM items"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	out := decodeRPC(t, resp.Body)
	assert.Equal(t, 1, out.ID)
	require.Len(t, out.Result.Content, 1)
	assert.False(t, out.Result.IsError)

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Rows  []map[string]any `json:"rows"`
			Count int              `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.Result.Content[0].Text), &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, 1, payload.Data.Count)
	assert.Equal(t, "alpha", payload.Data.Rows[0]["name"])
}

func TestMessage_EventStreamWhenAccepted(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp := post(t, ts.URL, toolCallBody(2, "SELECT 1 AS one"), map[string]string{
		"Accept": "application/json, text/event-stream",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "data:")
	assert.Contains(t, string(body), `"id":2`)
}

func TestMessage_ConcurrentRequestsKeepTheirIDs(t *testing.T) {
	ts := newTestServer(t, Options{})

	const clients = 16
	var wg sync.WaitGroup
	for i := 1; i <= clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/message",
				strings.NewReader(toolCallBody(id, fmt.Sprintf("SELECT %d AS n", id))))
			if err != nil {
				t.Errorf("new request: %v", err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Errorf("request %d: %v", id, err)
				return
			}
			defer resp.Body.Close()

			var out rpcResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Errorf("decode %d: %v", id, err)
				return
			}
			if out.ID != id {
				t.Errorf("expected response id %d, got %d", id, out.ID)
			}
			if len(out.Result.Content) == 0 || !strings.Contains(out.Result.Content[0].Text, fmt.Sprintf(`"n":%d`, id)) {
				t.Errorf("response %d carries another request's result: %+v", id, out.Result)
			}
		}(i)
	}
	wg.Wait()
}

func TestMessage_BearerAuth(t *testing.T) {
	ts := newTestServer(t, Options{Auth: auth.NewValidator(auth.StaticToken(testToken), true)})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + testToken, status: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer wrong-token-123", status: http.StatusForbidden},
		{name: "correct", header: "Bearer " + testToken, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp := post(t, ts.URL, toolCallBody(1, "SELECT 1"), headers)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "AUTH_ERROR", body["code"])
			}
		})
	}
}

func TestMessage_Origin(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		origin string
		status int
	}{
		{origin: "", status: http.StatusOK},
		{origin: "http://localhost:3000", status: http.StatusOK},
		{origin: "https://127.0.0.1", status: http.StatusOK},
		{origin: "http://[::1]:8080", status: http.StatusOK},
		{origin: "https://evil.example.com", status: http.StatusForbidden},
		{origin: "http://localhost.evil.com", status: http.StatusForbidden},
		{origin: "file://localhost", status: http.StatusForbidden},
		{origin: "null", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			headers := map[string]string{}
			if tt.origin != "" {
				headers["Origin"] = tt.origin
			}
			resp := post(t, ts.URL, toolCallBody(1, "SELECT 1"), headers)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMessage_Options(t *testing.T) {
	ts := newTestServer(t, Options{Auth: auth.NewValidator(auth.StaticToken(testToken), true)})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/message", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	preflight, err := http.NewRequest(http.MethodOptions, ts.URL+"/message", nil)
	require.NoError(t, err)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	preflight.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	resp, err = http.DefaultClient.Do(preflight)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{Auth: auth.NewValidator(auth.StaticToken(testToken), true)})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["success"])

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	text, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "dbmcp_http_requests_total")
}
