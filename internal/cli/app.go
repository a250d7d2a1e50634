package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leaveportal/internal/auth"
	"leaveportal/internal/config"
	"leaveportal/internal/handler"
	"leaveportal/internal/httpmiddleware"
	"leaveportal/internal/leave"
	"leaveportal/internal/metrics"
	"leaveportal/internal/store"
	"leaveportal/internal/uploads"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// app bundles the long-lived resources behind one configuration.
type app struct {
	cfg     config.App
	log     *slog.Logger
	backend leave.Backend
	uploads *uploads.Dir
	redis   *store.Redis
}

func openApp(ctx context.Context, cfg config.App, logger *slog.Logger) (*app, error) {
	backend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	return &app{
		cfg:     cfg,
		log:     logger,
		backend: backend,
		uploads: uploads.New(cfg.UploadDir),
		redis:   store.NewRedis(cfg),
	}, nil
}

// initialize creates the store files or tables and the upload directory.
func (a *app) initialize(ctx context.Context) error {
	if err := a.backend.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", a.cfg.StoreBackend, err)
	}
	return a.uploads.Init()
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close store", "err", err)
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("close redis", "err", err)
	}
}

func (a *app) limiter() httpmiddleware.Limiter {
	if a.cfg.RateLimitPerMin <= 0 {
		return nil
	}
	if a.redis != nil {
		return a.redis.Limiter(a.cfg.RateLimitPerMin)
	}
	return httpmiddleware.NewSimpleTokenBucket(a.cfg.RateLimitPerMin, a.cfg.RateLimitPerMin)
}

func (a *app) checks() map[string]handler.Check {
	checks := map[string]handler.Check{}
	if p, ok := a.backend.(pinger); ok {
		checks["store"] = func(ctx context.Context) bool { return p.Ping(ctx) == nil }
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Healthy
	}
	return checks
}

func (a *app) router() *gin.Engine {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return handler.NewRouter(handler.Options{
		Service: leave.NewService(a.backend, a.backend, metrics.New(reg)),
		Uploads: a.uploads,
		Cookie: auth.CookieConfig{
			Name:   a.cfg.SessionCookie,
			Key:    a.cfg.SessionSecret,
			Issuer: a.cfg.SessionIssuer,
			TTL:    a.cfg.SessionTTL,
			Secure: a.cfg.Production(),
		},
		Logger:         a.log,
		Limiter:        a.limiter(),
		MaxUploadBytes: int64(a.cfg.MaxUploadMB) << 20,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:         a.checks(),
	})
}
