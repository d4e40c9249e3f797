package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	"github.com/yungbote/glossary-backend/internal/jobs/manager"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/apierr"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

const DefaultRunListLimit = 50

// RunService is the request-facing side of the run manager.
type RunService interface {
	Start(ctx context.Context, projectID uuid.UUID, scope string) (uuid.UUID, error)
	Cancel(ctx context.Context, projectID uuid.UUID, runID uuid.UUID) error
	Active(ctx context.Context, projectID uuid.UUID) (*types.Run, error)
	List(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.Run, error)
	Get(dbc dbctx.Context, projectID uuid.UUID, runID uuid.UUID) (*types.Run, error)
	// OpenStream returns the run's event channel and a release func. A run that
	// already finished yields a single complete event carrying its status.
	OpenStream(ctx context.Context, projectID uuid.UUID, runID uuid.UUID) (<-chan types.Event, func(), error)
}

type runService struct {
	log      *logger.Logger
	projects ProjectService
	runs     repos.RunRepo
	registry *manager.Registry
}

func NewRunService(baseLog *logger.Logger, projects ProjectService, runs repos.RunRepo, registry *manager.Registry) RunService {
	return &runService{
		log:      baseLog.With("service", "RunService"),
		projects: projects,
		runs:     runs,
		registry: registry,
	}
}

func (s *runService) Start(ctx context.Context, projectID uuid.UUID, scope string) (uuid.UUID, error) {
	parsed, err := domainjobs.ParseScope(scope)
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_scope", manager.ErrInvalidScope)
	}
	if _, err := s.projects.Get(dbctx.Context{Ctx: ctx}, projectID); err != nil {
		return uuid.Nil, err
	}
	runID, err := s.registry.For(projectID).StartRun(ctx, parsed)
	switch {
	case err == nil:
		return runID, nil
	case errors.Is(err, manager.ErrAlreadyRunning):
		return uuid.Nil, apierr.New(http.StatusConflict, "run_already_active", err)
	case errors.Is(err, manager.ErrShuttingDown):
		return uuid.Nil, apierr.New(http.StatusServiceUnavailable, "shutting_down", err)
	case errors.Is(err, manager.ErrProjectMissing):
		return uuid.Nil, errProjectNotFound
	}
	return uuid.Nil, toAPIError(err, "start_run_failed")
}

func (s *runService) Cancel(ctx context.Context, projectID uuid.UUID, runID uuid.UUID) error {
	if _, err := s.projects.Get(dbctx.Context{Ctx: ctx}, projectID); err != nil {
		return err
	}
	if err := s.registry.For(projectID).CancelRun(runID); err != nil {
		if errors.Is(err, manager.ErrRunNotActive) {
			return apierr.New(http.StatusNotFound, "run_not_active", err)
		}
		return toAPIError(err, "cancel_run_failed")
	}
	return nil
}

func (s *runService) Active(ctx context.Context, projectID uuid.UUID) (*types.Run, error) {
	if _, err := s.projects.Get(dbctx.Context{Ctx: ctx}, projectID); err != nil {
		return nil, err
	}
	run, err := s.registry.For(projectID).GetActiveRun(ctx)
	if err != nil {
		return nil, toAPIError(err, "load_active_run_failed")
	}
	return run, nil
}

func (s *runService) List(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.Run, error) {
	if _, err := s.projects.Get(dbc, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = DefaultRunListLimit
	}
	out, err := s.runs.ListByProject(dbc, projectID, limit)
	if err != nil {
		return nil, toAPIError(err, "list_runs_failed")
	}
	if out == nil {
		out = []*types.Run{}
	}
	return out, nil
}

func (s *runService) Get(dbc dbctx.Context, projectID uuid.UUID, runID uuid.UUID) (*types.Run, error) {
	run, err := s.runs.GetByProjectAndID(dbc, projectID, runID)
	if err != nil {
		return nil, toAPIError(err, "load_run_failed")
	}
	if run == nil {
		return nil, errRunNotFound
	}
	return run, nil
}

func (s *runService) OpenStream(ctx context.Context, projectID uuid.UUID, runID uuid.UUID) (<-chan types.Event, func(), error) {
	if _, err := s.Get(dbctx.Context{Ctx: ctx}, projectID, runID); err != nil {
		return nil, nil, err
	}
	mgr := s.registry.For(projectID)
	ch, err := mgr.Subscribe(runID)
	if err == nil {
		return ch, func() { mgr.Unsubscribe(runID, ch) }, nil
	}
	if !errors.Is(err, manager.ErrRunNotActive) {
		return nil, nil, toAPIError(err, "subscribe_failed")
	}

	// Not active: re-read, since it may have finished after the first lookup.
	run, err := s.Get(dbctx.Context{Ctx: ctx}, projectID, runID)
	if err != nil {
		return nil, nil, err
	}
	if !run.Status.IsTerminal() {
		return nil, nil, apierr.New(http.StatusNotFound, "run_not_active", manager.ErrRunNotActive)
	}
	msg := "run " + string(run.Status)
	if run.ErrorMessage != nil && *run.ErrorMessage != "" {
		msg = *run.ErrorMessage
	}
	done := make(chan types.Event, 1)
	done <- domainjobs.CompleteEvent(run.ID, run.Status, msg)
	close(done)
	return done, func() {}, nil
}
