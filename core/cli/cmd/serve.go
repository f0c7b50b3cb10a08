package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/dbmcp/core/cli/internal"
	"github.com/hyperterse/dbmcp/core/infrastructure/di"
	httptransport "github.com/hyperterse/dbmcp/core/infrastructure/transport/http"
	"github.com/hyperterse/dbmcp/core/infrastructure/transport/stdio"
	"github.com/hyperterse/dbmcp/core/logger"
	"github.com/hyperterse/dbmcp/core/observability"
)

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	configureLogging(cfg)
	log := logger.New("main")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, di.Options{
		DSN:           cfg.DSN,
		ReadOnly:      cfg.ReadOnly,
		Version:       GetVersion(),
		AuthToken:     cfg.AuthToken,
		AuthTokenFile: cfg.AuthTokenFile,
		RequireAuth:   cfg.RequireAuth,
		RedisURL:      cfg.RedisURL,
		Telemetry:     observability.ResolveConfig().Enabled,
	})
	if err != nil {
		return logger.WithTag("startup", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(shutdownCtx); err != nil {
			log.Warnf("Error during shutdown: %v", err)
		}
	}()

	if cfg.ReadOnly {
		log.Infof("Read-only mode enabled")
	}

	switch cfg.Transport {
	case internal.TransportHTTP:
		if cfg.AuthToken == "" && cfg.AuthTokenFile == "" {
			log.Warnf("HTTP transport running without authentication")
		}
		server := httptransport.NewServer(container.Adapter, httptransport.Options{
			Port:        cfg.Port,
			Auth:        container.Auth,
			RateLimiter: container.RateLimiter,
			RateLimit:   cfg.RateLimit,
		})
		return server.Run(ctx)
	default:
		return stdio.Run(ctx, container.Adapter)
	}
}

func configureLogging(cfg *internal.Config) {
	logger.SetOutput(os.Stderr)
	logger.SetLogLevel(cfg.LogLevel)
	if cfg.LogTags != "" {
		logger.SetTagFilter(cfg.LogTags)
	}
}
