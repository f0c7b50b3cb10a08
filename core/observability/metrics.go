package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

type metrics struct {
	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram
	rowsReturned     metric.Int64Histogram
}

var (
	metricsOnce sync.Once
	m           metrics
)

func buildMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || !cfg.MetricsEnabled {
		return sdkmetric.NewMeterProvider(), nil
	}

	exporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter),
		),
	), nil
}

func initInstruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter("dbmcp/mcp")
		m.toolCallsTotal, _ = meter.Int64Counter("dbmcp.tool.calls_total")
		m.toolCallDuration, _ = meter.Float64Histogram("dbmcp.tool.call_duration_ms")
		m.rowsReturned, _ = meter.Int64Histogram("dbmcp.sql.rows_returned")
	})
}

// RecordToolCall counts one tool call. code is "" on success.
func RecordToolCall(ctx context.Context, tool, dialect, code string, durationMS float64) {
	initInstruments()
	attrs := metric.WithAttributes(
		attribute.String(AttrToolName, tool),
		attribute.String(AttrDialect, dialect),
		attribute.Bool("success", code == ""),
		attribute.String(AttrErrorCode, code),
	)
	m.toolCallsTotal.Add(ctx, 1, attrs)
	m.toolCallDuration.Record(ctx, durationMS, attrs)
}

// RecordRows records the size of an execute_sql result and tags the active
// span with it.
func RecordRows(ctx context.Context, dialect string, rows int) {
	initInstruments()
	m.rowsReturned.Record(ctx, int64(rows), metric.WithAttributes(attribute.String(AttrDialect, dialect)))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(AttrRowCount, rows))
}
