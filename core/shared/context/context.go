// Package context carries per-call identifiers through a context.Context.
package context

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

type key int

const callIDKey key = iota

// WithCallID attaches a tool call ID to ctx.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey, id)
}

// CallID returns the tool call ID in ctx, or "".
func CallID(ctx context.Context) string {
	if id, ok := ctx.Value(callIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureCallID returns ctx with a call ID, reusing an existing one. A sampled
// trace ID is preferred so logs and traces line up.
func EnsureCallID(ctx context.Context) (context.Context, string) {
	if id := CallID(ctx); id != "" {
		return ctx, id
	}
	id := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		id = sc.TraceID().String()
	} else {
		id = NewCallID()
	}
	return WithCallID(ctx, id), id
}

// NewCallID generates a random 16-byte hex ID.
func NewCallID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
