// Package stdio serves the MCP tools over the process's standard streams.
package stdio

import (
	"context"
	"errors"
	"io"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

// Run serves one long-lived MCP server on stdin/stdout until ctx is cancelled
// or the client closes its end. Cancelling ctx closes the transport once;
// disconnecting the database is left to the caller.
func Run(ctx context.Context, adapter *mcp.Adapter) error {
	return serve(ctx, adapter, &mcpsdk.StdioTransport{})
}

func serve(ctx context.Context, adapter *mcp.Adapter, transport mcpsdk.Transport) error {
	log := logging.New("stdio")
	log.Infof("Serving MCP over stdio")

	err := adapter.NewServer().Run(ctx, transport)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		log.Infof("stdio transport closed")
		return nil
	default:
		return err
	}
}
