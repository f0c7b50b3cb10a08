package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/logger"
	"github.com/hyperterse/dbmcp/core/observability"
	ctxutil "github.com/hyperterse/dbmcp/core/shared/context"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

const serverName = "dbmcp"

// Options configures the tool surface.
type Options struct {
	Version  string
	ReadOnly bool
}

// Adapter exposes a SQLService as MCP tools. It is immutable after New, so
// one Adapter can build any number of servers concurrently.
type Adapter struct {
	service interfaces.SQLService
	opts    Options
	tools   []tool
}

// New creates an MCP adapter over service.
func New(service interfaces.SQLService, opts Options) (*Adapter, error) {
	if service == nil {
		return nil, fmt.Errorf("mcp adapter requires a sql service")
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Adapter{
		service: service,
		opts:    opts,
		tools:   toolset(opts.ReadOnly),
	}, nil
}

// NewServer builds a fresh MCP server with every tool registered. The stdio
// transport uses one for the life of the process; the HTTP transport builds
// one per request.
func (a *Adapter) NewServer() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    serverName,
		Version: a.opts.Version,
	}, &mcpsdk.ServerOptions{
		Instructions: fmt.Sprintf("SQL access to a %s database.", a.service.Dialect().DisplayName()),
	})

	for _, t := range a.tools {
		t := t
		server.AddTool(&mcpsdk.Tool{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema(),
		}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return a.callTool(ctx, req, t), nil
		})
	}
	return server
}

func (a *Adapter) callTool(ctx context.Context, req *mcpsdk.CallToolRequest, t tool) (result *mcpsdk.CallToolResult) {
	started := time.Now()
	dialect := string(a.service.Dialect())

	args, err := decodeArgs(req.Params.Arguments, t)
	if err != nil {
		observability.RecordToolCall(ctx, t.name, dialect, string(apperrors.CodeOf(err)), msSince(started))
		return toolError(err)
	}

	ctx, span := observability.StartToolSpan(ctx, t.name, dialect, args)
	ctx, callID := ctxutil.EnsureCallID(ctx)
	log := logger.New("mcp").With(map[string]any{"call_id": callID})
	var callErr error
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("MCP tool %s panicked: %v", t.name, r)
			callErr = apperrors.NewAppError(apperrors.ErrCodeInternalError, "internal error", fmt.Errorf("%v", r))
			result = toolError(callErr)
		}
		code := ""
		if callErr != nil {
			code = string(apperrors.CodeOf(callErr))
		}
		observability.EndToolSpan(span, code, callErr)
		observability.RecordToolCall(ctx, t.name, dialect, code, msSince(started))
	}()

	log.Debugf("Calling MCP tool: %s", t.name)
	data, callErr := t.run(ctx, a.service, args)
	if callErr != nil {
		log.Warnf("MCP tool %s failed: %s", t.name, callErr)
		return toolError(callErr)
	}
	log.Debugf("MCP tool %s completed in %s", t.name, time.Since(started))
	return toolSuccess(data)
}

// decodeArgs checks the call arguments against the tool's declared string
// parameters.
func decodeArgs(raw json.RawMessage, t tool) (map[string]string, error) {
	inputs := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, fmt.Sprintf("invalid params: %v", err), err)
		}
	}

	args := make(map[string]string, len(t.params))
	for _, p := range t.params {
		value, present := inputs[p.name]
		if !present || value == nil {
			if p.required {
				return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
					fmt.Sprintf("missing required argument '%s'", p.name), nil)
			}
			continue
		}
		s, ok := value.(string)
		if !ok {
			return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
				fmt.Sprintf("argument '%s' must be a string", p.name), nil)
		}
		args[p.name] = s
	}
	return args, nil
}

type successPayload struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func toolSuccess(data any) *mcpsdk.CallToolResult {
	body, err := json.Marshal(successPayload{Success: true, Data: data})
	if err != nil {
		return toolError(apperrors.NewAppError(apperrors.ErrCodeInternalError, "failed to serialize results", err))
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(body)},
		},
	}
}

func toolError(err error) *mcpsdk.CallToolResult {
	payload := errorPayload{
		Success: false,
		Error:   apperrors.MessageOf(err),
		Code:    string(apperrors.CodeOf(err)),
	}
	data, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		data = []byte(`{"success":false,"error":"internal error","code":"INTERNAL_ERROR"}`)
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
