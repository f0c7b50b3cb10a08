package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestResolveConfig(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg := ResolveConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "dbmcp", cfg.ServiceName)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("DBMCP_OTEL_TRACE_SAMPLING_RATIO", "7")
	cfg = ResolveConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSamplingRate)
}

func TestRedactAttributeValue(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactAttributeValue("auth_token", "abc"))
	assert.Equal(t, "[REDACTED]", RedactAttributeValue("DSN", "postgres://u:p@h/d"))
	assert.Equal(t, "SELECT 1", RedactAttributeValue("sql", "SELECT 1"))
}

func TestToolSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartToolSpan(context.Background(), "execute_sql", "sqlite", map[string]string{"sql": "SELECT 1", "token": "x"})
	EndToolSpan(span, "EXECUTION_ERROR", assert.AnError)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool execute_sql", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "SELECT 1", attrs["tool.arg.sql"])
	assert.Equal(t, "[REDACTED]", attrs["tool.arg.token"])
	assert.Equal(t, "EXECUTION_ERROR", attrs[AttrErrorCode])
}

func TestSetupWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	providers, err := Setup(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "test", providers.Config().ServiceVersion)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestToolSpan_SchemaTableAndRows(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := StartToolSpan(context.Background(), "describe_table", "postgres", map[string]string{"schema": "public", "table": "orders"})
	RecordRows(ctx, "postgres", 3)
	EndToolSpan(span, "", nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "public", attrs[AttrDBSchema])
	assert.Equal(t, "orders", attrs[AttrDBTable])
	assert.Equal(t, "3", attrs[AttrRowCount])
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}
