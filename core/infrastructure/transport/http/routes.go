package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	"github.com/hyperterse/dbmcp/core/infrastructure/transport/http/middleware"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

// RegisterRoutes registers all HTTP routes. Only /message is behind bearer
// auth and rate limiting; health and metrics stay open for probes.
func RegisterRoutes(r chi.Router, adapter *mcp.Adapter, opts Options) {
	log := logging.New("routes")

	r.Route("/message", func(r chi.Router) {
		r.Use(middleware.Auth(opts.Auth))
		r.Use(middleware.RateLimitByIP(opts.RateLimiter, opts.RateLimit, rateLimitWindow))
		r.Options("/", handleMessageOptions)
		r.Post("/", newMessageHandler(adapter).ServeHTTP)
	})
	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	log.Debugf("Routes registered: POST /message, OPTIONS /message, GET /healthz, GET /metrics")
}
