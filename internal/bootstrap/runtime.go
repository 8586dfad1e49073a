// Package bootstrap wires configuration into a ready integrity engine for the
// command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"sazon/internal/config"
	"sazon/internal/credential"
	"sazon/internal/database"
	"sazon/internal/integrity"
	"sazon/internal/lifecycle"
	"sazon/internal/media"
	"sazon/internal/notifications"
	"sazon/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema leaves the schema untouched; cmd/migrate manages it itself.
	SkipSchema bool
	// ServiceName is reported to the tracer.
	ServiceName string
}

// Runtime holds the initialized dependencies. Close releases them.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Hasher credential.Hasher
	Engine *integrity.Engine

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects the database and, when
// events are enabled, Redis, then builds the engine.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	observability.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	name := opts.ServiceName
	if name == "" {
		name = "sazon"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  name,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	rt := &Runtime{Config: cfg, shutdownTracing: shutdown}

	rt.DB, err = database.Connect(cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if !opts.SkipSchema {
		if err := database.ApplySchema(ctx, rt.DB, cfg); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	var publisher notifications.Publisher = notifications.NopPublisher{}
	if cfg.EventsEnabled {
		rt.Redis, err = notifications.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		publisher = notifications.NewRedisPublisher(rt.Redis)
	}

	rt.Hasher = credential.NewBcryptHasher(cfg.BcryptCost)
	rt.Engine = integrity.New(rt.DB,
		integrity.WithCoordinator(lifecycle.NewCoordinator(lifecycle.WithBatchSize(cfg.CascadeBatchSize))),
		integrity.WithPublisher(publisher),
		integrity.WithHasher(rt.Hasher),
		integrity.WithMediaStore(media.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MediaMaxUploadMB)),
	)

	observability.Logger.Info("runtime ready",
		slog.String("env", cfg.Env),
		slog.String("driver", rt.DB.Dialector.Name()),
		slog.Bool("events", cfg.EventsEnabled),
	)
	return rt, nil
}

// Close flushes traces and closes the Redis client and database pool.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.shutdownTracing != nil {
		errs = append(errs, r.shutdownTracing(ctx))
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
