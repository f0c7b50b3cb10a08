package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const tracingOperation = "dbmcp.http"

// Tracing starts a server span per request and extracts the caller's trace
// context with the global propagator.
func Tracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(
		next,
		tracingOperation,
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
		otelhttp.WithTracerProvider(otel.GetTracerProvider()),
		otelhttp.WithMeterProvider(otel.GetMeterProvider()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
