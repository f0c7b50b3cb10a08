package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dbmcp/mcp"

func buildTraceProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled || !cfg.TracesEnabled {
		return sdktrace.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TraceSamplingRate)),
		sdktrace.WithBatcher(exporter),
	)

	return provider, nil
}

func buildResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
}

// StartToolSpan opens a span around one tool call. String arguments are
// attached with sensitive keys masked.
func StartToolSpan(ctx context.Context, tool, dialect string, args map[string]string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrToolName, tool),
		attribute.String(AttrDialect, dialect),
	}
	for key, value := range args {
		switch key {
		case "schema":
			attrs = append(attrs, attribute.String(AttrDBSchema, value))
		case "table":
			attrs = append(attrs, attribute.String(AttrDBTable, value))
		default:
			attrs = append(attrs, attribute.String("tool.arg."+key, RedactAttributeValue(key, value)))
		}
	}
	return otel.Tracer(tracerName).Start(ctx, "tool "+tool, trace.WithAttributes(attrs...))
}

// EndToolSpan records the outcome and ends span. code is empty on success.
func EndToolSpan(span trace.Span, code string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorCode, code))
		span.SetStatus(codes.Error, code)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
