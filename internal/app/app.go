package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yungbote/glossary-backend/internal/data/db"
	"github.com/yungbote/glossary-backend/internal/data/repos"
	httpserver "github.com/yungbote/glossary-backend/internal/http"
	"github.com/yungbote/glossary-backend/internal/jobs/manager"
	"github.com/yungbote/glossary-backend/internal/observability"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/realtime"
	"github.com/yungbote/glossary-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    repos.Set
	Hub      *realtime.Hub
	Runs     *manager.Registry
	Services Services
	Server   *httpserver.Server

	mirror       *bus.RedisBus
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	dbService, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	reposet := repos.NewSet(dbService.DB(), log)

	a := &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbService,
		Repos:        reposet,
		otelShutdown: otelShutdown,
	}

	var mirror realtime.Mirror
	if cfg.Redis.Addr != "" {
		rb, err := bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			log.Warn("Redis event mirror unavailable (continuing without it)", "error", err)
		} else {
			a.mirror = rb
			mirror = rb
		}
	}
	a.Hub = realtime.NewHub(log, cfg.EventBuffer, mirror)

	executor, err := wireExecutor(cfg, log, reposet)
	if err != nil {
		a.closeResources(context.Background())
		return nil, err
	}
	a.Runs = manager.NewRegistry(manager.Deps{
		DB:       dbService.DB(),
		Repos:    reposet,
		Hub:      a.Hub,
		Executor: executor,
		Log:      log,
	})

	a.Services = wireServices(log, reposet, a.Runs)
	a.Server = httpserver.NewServer(wireRouter(cfg, log, a.Services, a.Hub, dbService))
	return a, nil
}

// Start prepares background state before the server accepts requests.
func (a *App) Start(ctx context.Context) error {
	n, err := a.Runs.RecoverStale(ctx)
	if err != nil {
		return fmt.Errorf("recover stale runs: %w", err)
	}
	if n > 0 {
		a.Log.Warn("Marked runs from a previous process as failed", "count", n)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close cancels active runs and waits for their workers, so open event
// streams receive their complete event before the HTTP server stops. ctx
// bounds the wait.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Runs != nil {
		if err := a.Runs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("run shutdown: %w", err))
		}
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := a.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) error {
	var errs []error
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis mirror close: %w", err))
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
