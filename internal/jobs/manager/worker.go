package manager

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
	"github.com/yungbote/glossary-backend/internal/pkg/pointers"
)

// work is the worker body. It owns a private connection for the whole run and
// always ends by persisting a terminal status and broadcasting complete.
func (m *Manager) work(ctx context.Context, run *types.Run, project *types.Project) {
	defer m.reg.workers.Done()
	deps := m.reg.deps

	finished := false
	err := deps.DB.WithContext(context.WithoutCancel(ctx)).Connection(func(conn *gorm.DB) error {
		outcome := m.drive(ctx, conn, run, project)
		m.finish(conn, run, outcome)
		finished = true
		return nil
	})
	if !finished {
		if err == nil {
			err = errors.New("worker connection closed before run finished")
		}
		m.finish(deps.DB, run, fmt.Errorf("acquire connection: %w", err))
	}
}

// drive marks the run running and executes the pipeline. A panic anywhere in
// the pipeline is converted into an error.
func (m *Manager) drive(ctx context.Context, conn *gorm.DB, run *types.Run, project *types.Project) (err error) {
	log := m.log.With("run_id", run.ID, "scope", run.Scope)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Run worker panic", "panic", r, "stack", string(debug.Stack()))
			err = &panicError{Val: r}
		}
	}()

	deps := m.reg.deps
	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx), Tx: conn}
	now := time.Now().UTC()
	if _, err := deps.Repos.Run.UpdateFieldsUnlessStatus(dbc, run.ID, domainjobs.TerminalStatuses(), map[string]interface{}{
		"status":     string(types.RunStatusRunning),
		"started_at": now,
	}); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	run.Status = types.RunStatusRunning
	run.StartedAt = &now
	log.Info("Run running", "status", run.Status)

	rc := jobrt.NewContext(ctx, conn, run, project, deps.Repos, deps.Hub.Broadcast, log)
	return deps.Executor.Execute(rc)
}

// finish decides the terminal status under the manager lock, so a cancel
// accepted before this point always yields cancelled. The complete event is
// broadcast after the status is stored and the active slot is released.
func (m *Manager) finish(conn *gorm.DB, run *types.Run, outcome error) {
	m.mu.Lock()

	status := types.RunStatusCompleted
	message := "Run completed"
	var errMsg *string
	cancelRequested := m.active != nil && m.active.id == run.ID && m.active.cancelRequested
	switch {
	case cancelRequested || errors.Is(outcome, pkgerrors.ErrCancelled):
		status = types.RunStatusCancelled
		message = "Run cancelled"
	case outcome != nil:
		status = types.RunStatusFailed
		message = outcome.Error()
		if message == "" {
			message = "run failed"
		}
		errMsg = pointers.Ptr(message)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":        string(status),
		"completed_at":  now,
		"error_message": errMsg,
	}
	if status == types.RunStatusCompleted {
		updates["progress_current"] = gorm.Expr("progress_total")
		updates["current_step"] = "done"
	}
	dbc := dbctx.Context{Ctx: context.Background(), Tx: conn}
	if _, err := m.reg.deps.Repos.Run.UpdateFieldsUnlessStatus(dbc, run.ID, domainjobs.TerminalStatuses(), updates); err != nil {
		m.log.Error("Failed to persist terminal run status", "run_id", run.ID, "status", status, "error", err)
	}
	run.Status = status
	run.CompletedAt = &now
	run.ErrorMessage = errMsg

	if m.active != nil && m.active.id == run.ID {
		m.active.cancel()
		m.active = nil
	}
	m.mu.Unlock()

	m.log.Info("Run finished", "run_id", run.ID, "scope", run.Scope, "status", status)

	hub := m.reg.deps.Hub
	hub.Broadcast(domainjobs.CompleteEvent(run.ID, status, message))
	hub.Close(run.ID)
}
