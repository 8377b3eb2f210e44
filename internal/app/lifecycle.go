// Package app owns process lifecycle: connecting backing resources at
// startup, reporting what connected, and tearing everything down in reverse
// order on shutdown.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
	"github.com/socialsuit/Backend-Socialsuit/internal/database"
	"github.com/socialsuit/Backend-Socialsuit/internal/queue"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
)

// ResourceStatus records the outcome of one resource connection attempt.
type ResourceStatus struct {
	Name      string
	Connected bool
	Err       error
}

// StartupReport lists every resource in connection order.
type StartupReport []ResourceStatus

// Degraded reports whether any configured resource failed to connect.
func (r StartupReport) Degraded() bool {
	for _, s := range r {
		if !s.Connected {
			return true
		}
	}
	return false
}

// App holds the connected backing resources. Any field may be nil when the
// resource is unconfigured or failed to connect; the pipeline degrades
// rather than refusing to serve.
type App struct {
	Cfg *config.Config
	Log *zap.Logger

	Redis     *ratelimit.RedisStore
	DB        *database.DB
	Mongo     *database.Mongo
	Publisher *queue.RabbitMQPublisher
}

// New creates an unconnected App.
func New(cfg *config.Config, log *zap.Logger) *App {
	return &App{Cfg: cfg, Log: log}
}

// Startup connects each configured resource independently. A failed
// connection is recorded and logged but never aborts startup; the server
// comes up with whatever it could reach.
func (a *App) Startup(ctx context.Context) StartupReport {
	var report StartupReport

	if a.Cfg.RedisURL != "" {
		store, err := ratelimit.NewRedisStore(a.Cfg.RedisURL)
		report = append(report, a.noteStartup("redis", err))
		if err == nil {
			a.Redis = store
		}
	}

	if a.Cfg.DatabaseURL != "" {
		db, err := database.New(ctx, a.Cfg.DatabaseURL)
		report = append(report, a.noteStartup("postgres", err))
		if err == nil {
			a.DB = db
		}
	}

	if a.Cfg.MongoURL != "" {
		m, err := database.NewMongo(ctx, a.Cfg.MongoURL)
		report = append(report, a.noteStartup("mongo", err))
		if err == nil {
			a.Mongo = m
		}
	}

	if a.Cfg.RabbitMQURL != "" {
		p, err := queue.NewRabbitMQPublisher(a.Cfg.RabbitMQURL)
		report = append(report, a.noteStartup("rabbitmq", err))
		if err == nil {
			a.Publisher = p
		}
	}

	return report
}

func (a *App) noteStartup(name string, err error) ResourceStatus {
	if err != nil {
		a.Log.Warn("resource_unavailable_at_startup",
			zap.String("resource", name),
			zap.Error(err),
		)
		return ResourceStatus{Name: name, Err: err}
	}
	a.Log.Info("resource_connected", zap.String("resource", name))
	return ResourceStatus{Name: name, Connected: true}
}

// Shutdown releases resources in reverse connection order. Each close is
// attempted even when an earlier one fails.
func (a *App) Shutdown(ctx context.Context) {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.Warn("shutdown_close_failed", zap.String("resource", "rabbitmq"), zap.Error(err))
		}
		a.Publisher = nil
	}
	if a.Mongo != nil {
		if err := a.Mongo.Close(ctx); err != nil {
			a.Log.Warn("shutdown_close_failed", zap.String("resource", "mongo"), zap.Error(err))
		}
		a.Mongo = nil
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("shutdown_close_failed", zap.String("resource", "postgres"), zap.Error(err))
		}
		a.DB = nil
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("shutdown_close_failed", zap.String("resource", "redis"), zap.Error(err))
		}
		a.Redis = nil
	}
}
