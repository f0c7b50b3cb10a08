// Package di wires the server's dependencies once, at startup.
package di

import (
	"context"
	"errors"

	"github.com/hyperterse/dbmcp/core/application/services"
	"github.com/hyperterse/dbmcp/core/infrastructure/auth"
	infraconnectors "github.com/hyperterse/dbmcp/core/infrastructure/connectors"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	"github.com/hyperterse/dbmcp/core/infrastructure/transport/http/middleware"
	"github.com/hyperterse/dbmcp/core/observability"
	"github.com/hyperterse/dbmcp/core/runtime/mcp"
)

// Options are the resolved settings the container needs.
type Options struct {
	DSN           string
	ReadOnly      bool
	Version       string
	AuthToken     string
	AuthTokenFile string
	RequireAuth   bool
	RedisURL      string
	Telemetry     bool
}

// Container holds all dependencies
type Container struct {
	ConnectorManager *infraconnectors.ConnectorManager
	SQLService       *services.SQLService
	Adapter          *mcp.Adapter
	Auth             *auth.Validator
	RateLimiter      middleware.RateLimiter

	redis     *middleware.RedisRateLimiter
	telemetry *observability.Providers
}

// NewContainer connects to the database and builds the service graph. ctx
// bounds the token file watcher as well as startup. On error everything
// already opened is closed again.
func NewContainer(ctx context.Context, opts Options) (c *Container, err error) {
	log := logging.New("di")
	c = &Container{}
	defer func() {
		if err != nil {
			c.Close(context.Background())
			c = nil
		}
	}()

	if opts.Telemetry {
		if c.telemetry, err = observability.Setup(ctx, opts.Version); err != nil {
			return c, err
		}
	}

	c.ConnectorManager = infraconnectors.NewConnectorManager()
	if err = c.ConnectorManager.ConnectWithDSN(ctx, opts.DSN); err != nil {
		return c, err
	}

	c.SQLService = services.NewSQLService(c.ConnectorManager.Current(), opts.ReadOnly)
	if c.Adapter, err = mcp.New(c.SQLService, mcp.Options{Version: opts.Version, ReadOnly: opts.ReadOnly}); err != nil {
		return c, err
	}

	if c.Auth, err = newValidator(ctx, opts); err != nil {
		return c, err
	}

	if opts.RedisURL != "" {
		if c.redis, err = middleware.NewRedisRateLimiterFromURL(ctx, opts.RedisURL); err != nil {
			return c, err
		}
		c.RateLimiter = c.redis
	}

	log.Debugf("Container initialized (read-only: %t)", opts.ReadOnly)
	return c, nil
}

func newValidator(ctx context.Context, opts Options) (*auth.Validator, error) {
	if opts.AuthTokenFile == "" {
		return auth.NewValidator(auth.StaticToken(opts.AuthToken), opts.RequireAuth), nil
	}
	source, err := auth.NewFileToken(opts.AuthTokenFile)
	if err != nil {
		return nil, err
	}
	if err := source.Watch(ctx); err != nil {
		logging.New("auth").Warnf("Token file will not be reloaded: %v", err)
	}
	return auth.NewValidator(source, opts.RequireAuth), nil
}

// Close closes all resources
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.ConnectorManager != nil {
		errs = append(errs, c.ConnectorManager.Disconnect())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.telemetry != nil {
		errs = append(errs, c.telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
