package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	ctxutil "github.com/hyperterse/dbmcp/core/shared/context"
)

func TestCallID(t *testing.T) {
	ctx := ctxutil.WithCallID(context.Background(), "call-1")
	assert.Equal(t, "call-1", ctxutil.CallID(ctx))
	assert.Empty(t, ctxutil.CallID(context.Background()))
}

func TestEnsureCallID(t *testing.T) {
	ctx, id := ctxutil.EnsureCallID(context.Background())
	assert.Len(t, id, 32)
	assert.Equal(t, id, ctxutil.CallID(ctx))

	again, same := ctxutil.EnsureCallID(ctx)
	assert.Equal(t, id, same)
	assert.Equal(t, ctx, again)
}

func TestEnsureCallID_PrefersTraceID(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	_, id := ctxutil.EnsureCallID(ctx)
	assert.Equal(t, traceID.String(), id)
}

func TestNewCallID_Unique(t *testing.T) {
	assert.NotEqual(t, ctxutil.NewCallID(), ctxutil.NewCallID())
}
