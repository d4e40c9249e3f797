package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/realtime"
)

const staleRunMessage = "interrupted by process restart"

// Executor runs one run's pipeline on the worker goroutine.
type Executor interface {
	Execute(rc *runtime.Context) error
}

type Deps struct {
	DB       *gorm.DB
	Repos    repos.Set
	Hub      *realtime.Hub
	Executor Executor
	Log      *logger.Logger
}

// Registry maps a project to its single Manager so that cancel and subscribe
// requests reach the worker started by an earlier request. Construct one per
// process (or per test) and pass it around explicitly.
type Registry struct {
	deps Deps
	log  *logger.Logger

	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	managers map[uuid.UUID]*Manager
	closed   bool
	workers  sync.WaitGroup
}

func NewRegistry(deps Deps) *Registry {
	base, stop := context.WithCancel(context.Background())
	return &Registry{
		deps:     deps,
		log:      deps.Log.With("component", "RunRegistry"),
		base:     base,
		stop:     stop,
		managers: make(map[uuid.UUID]*Manager),
	}
}

// For returns the project's Manager, creating it on first use.
func (r *Registry) For(projectID uuid.UUID) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[projectID]
	if !ok {
		m = newManager(projectID, r)
		r.managers[projectID] = m
	}
	return m
}

// RecoverStale fails runs a previous process left pending or running. Call it
// once at startup before any run is started.
func (r *Registry) RecoverStale(ctx context.Context) (int64, error) {
	n, err := r.deps.Repos.Run.FailActive(dbctx.Context{Ctx: ctx}, staleRunMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Warn("Marked stale runs as failed", "count", n)
	}
	return n, nil
}

// Shutdown cancels every active run and waits for the workers to persist
// their terminal status, or for ctx to expire.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.stop()

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.log.Info("All run workers stopped")
		return nil
	case <-ctx.Done():
		r.log.Warn("Timed out waiting for run workers", "error", ctx.Err())
		return ctx.Err()
	}
}

// reserveWorker registers a worker with the shutdown wait group unless the
// registry is closed.
func (r *Registry) reserveWorker() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.workers.Add(1)
	return true
}
