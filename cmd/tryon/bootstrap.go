package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/internal/config"
	"github.com/mhpenta/tryon/internal/logging"
	"github.com/mhpenta/tryon/metrics"
	"github.com/mhpenta/tryon/provider/gemini"
	"github.com/mhpenta/tryon/provider/rest"
	"github.com/mhpenta/tryon/ratelimiter"
	"github.com/mhpenta/tryon/storage"
)

// app holds everything a command needs to run generations.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *tryon.Engine
	metrics *metrics.Collector

	closers []func() error
}

func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// buildApp wires the transport, quota guard, metrics and engine from cfg.
// Extra observers receive engine events alongside the metrics collector.
func buildApp(cfg *config.Config, logOut io.Writer, observers ...tryon.Observer) (*app, error) {
	logger, err := logging.NewFromConfig(cfg, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(),
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	opts := []tryon.Option{
		tryon.WithLogger(logging.NewComponentLogger(logger, "engine")),
		tryon.WithModels(tryon.ModelsFromIDs(cfg.Gemini.Models)),
		tryon.WithAPIVersions(cfg.Gemini.APIVersions...),
		tryon.WithMaxRetries(cfg.Engine.MaxRetries),
		tryon.WithBackoff(tryon.Backoff{
			Base:   time.Duration(cfg.Engine.BackoffBaseMS) * time.Millisecond,
			Jitter: time.Duration(cfg.Engine.BackoffJitterMS) * time.Millisecond,
		}),
		tryon.WithObserver(tryon.Observers(append([]tryon.Observer{a.metrics}, observers...)...)),
	}

	if cfg.RateLimitEnabled() {
		limiter, closer := buildLimiter(cfg)
		opts = append(opts, tryon.WithQuotaGuard(limiter))
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		logger.Debug("quota guard enabled",
			"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
			"shared", cfg.RateLimit.RedisAddr != "",
		)
	}

	a.engine = tryon.New(transport, opts...)
	return a, nil
}

func buildTransport(cfg *config.Config) (tryon.Transport, error) {
	client := &http.Client{Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second}

	switch cfg.Gemini.Transport {
	case config.TransportREST:
		opts := []rest.Option{rest.WithHTTPClient(client)}
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, rest.WithBaseURL(cfg.Gemini.BaseURL))
		}
		return rest.New(opts...), nil
	case config.TransportGenAI:
		opts := []gemini.Option{gemini.WithHTTPClient(client)}
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.Gemini.BaseURL))
		}
		return gemini.New(opts...), nil
	default:
		return nil, fmt.Errorf("gemini.transport: unsupported value %q", cfg.Gemini.Transport)
	}
}

func buildLimiter(cfg *config.Config) (ratelimiter.Limiter, func() error) {
	limits := ratelimiter.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}
	if cfg.RateLimit.RedisAddr == "" {
		return ratelimiter.NewLocal(limits), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
	return ratelimiter.NewRedis(client, cfg.RateLimit.RedisKeyPrefix, limits), client.Close
}

// buildStorage returns the configured result store. A non-empty bucket
// overrides the one in the config file.
func buildStorage(ctx context.Context, cfg *config.Config, bucket string) (tryon.Storage, error) {
	if bucket == "" {
		bucket = cfg.Storage.S3Bucket
	}
	if bucket == "" {
		return storage.NewLocal(cfg.Storage.Dir), nil
	}

	return storage.NewS3(ctx, storage.S3Config{
		Bucket:          bucket,
		Prefix:          cfg.Storage.S3Prefix,
		Region:          cfg.Storage.S3Region,
		Endpoint:        cfg.Storage.S3Endpoint,
		AccessKeyID:     cfg.Storage.S3AccessKeyID,
		SecretAccessKey: cfg.Storage.S3SecretAccessKey,
		PresignExpiry:   time.Duration(cfg.Storage.S3PresignHours) * time.Hour,
	})
}
