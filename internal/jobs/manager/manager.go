package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type activeRun struct {
	id              uuid.UUID
	cancel          context.CancelFunc
	cancelRequested bool
}

// Manager owns at most one active run for a project. mu guards only the
// active-run bookkeeping and is never held while a stage runs.
type Manager struct {
	projectID uuid.UUID
	reg       *Registry
	log       *logger.Logger

	mu     sync.Mutex
	active *activeRun
}

func newManager(projectID uuid.UUID, reg *Registry) *Manager {
	return &Manager{
		projectID: projectID,
		reg:       reg,
		log:       reg.deps.Log.With("component", "RunManager", "project_id", projectID),
	}
}

func (m *Manager) ProjectID() uuid.UUID { return m.projectID }

// StartRun persists a pending run and starts its worker. It returns as soon as
// the worker is spawned.
func (m *Manager) StartRun(ctx context.Context, scope types.Scope) (uuid.UUID, error) {
	if !scope.Valid() {
		return uuid.Nil, ErrInvalidScope
	}
	deps := m.reg.deps
	project, err := deps.Repos.Project.GetByID(dbctx.Context{Ctx: ctx}, m.projectID)
	if err != nil {
		return uuid.Nil, err
	}
	if project == nil {
		return uuid.Nil, ErrProjectMissing
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return uuid.Nil, ErrAlreadyRunning
	}
	if !m.reg.reserveWorker() {
		return uuid.Nil, ErrShuttingDown
	}

	run, err := deps.Repos.Run.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, &types.Run{
		ProjectID: m.projectID,
		Scope:     scope,
		Status:    types.RunStatusPending,
	})
	if err != nil {
		m.reg.workers.Done()
		return uuid.Nil, err
	}

	runCtx, cancel := context.WithCancel(m.reg.base)
	m.active = &activeRun{id: run.ID, cancel: cancel}
	go m.work(runCtx, run, project)

	m.log.Info("Run started", "run_id", run.ID, "scope", scope)
	return run.ID, nil
}

// CancelRun requests cooperative cancellation and returns immediately.
func (m *Manager) CancelRun(runID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.id != runID {
		return ErrRunNotActive
	}
	if !m.active.cancelRequested {
		m.active.cancelRequested = true
		m.active.cancel()
		m.log.Info("Run cancellation requested", "run_id", runID)
	}
	return nil
}

// GetActiveRun returns the project's non-terminal run, or nil.
func (m *Manager) GetActiveRun(ctx context.Context) (*types.Run, error) {
	m.mu.Lock()
	var id uuid.UUID
	if m.active != nil {
		id = m.active.id
	}
	m.mu.Unlock()
	if id == uuid.Nil {
		return nil, nil
	}
	run, err := m.reg.deps.Repos.Run.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if run == nil || run.Status.IsTerminal() {
		return nil, nil
	}
	return run, nil
}

// Subscribe returns a channel receiving every event of the active run from now
// on, closed after its complete event.
func (m *Manager) Subscribe(runID uuid.UUID) (<-chan types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.id != runID {
		return nil, ErrRunNotActive
	}
	return m.reg.deps.Hub.Subscribe(runID), nil
}

// Unsubscribe is safe after the channel was closed by the run finishing.
func (m *Manager) Unsubscribe(runID uuid.UUID, ch <-chan types.Event) {
	m.reg.deps.Hub.Unsubscribe(runID, ch)
}
