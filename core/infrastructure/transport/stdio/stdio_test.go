package stdio

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/dbmcp/core/application/services"
	"github.com/hyperterse/dbmcp/core/infrastructure/connectors"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

func TestServe_StopsOnCancel(t *testing.T) {
	manager := connectors.NewConnectorManager()
	require.NoError(t, manager.ConnectWithDSN(context.Background(), "sqlite://:memory:"))
	defer manager.Disconnect()

	adapter, err := mcp.New(services.NewSQLService(manager.Current(), true), mcp.Options{Version: "test"})
	require.NoError(t, err)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, adapter, serverTransport) }()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "execute_sql",
		Arguments: map[string]any{"sql": "SELECT 1 AS one"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stdio server did not stop after cancel")
	}
	session.Close()
}
