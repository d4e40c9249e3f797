package pipeline

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/observability"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// Executor drives one run through the stages of its scope.
type Executor struct {
	stages    *runtime.Registry
	documents *DocumentSource
	log       *logger.Logger
}

func NewExecutor(stages *runtime.Registry, documents *DocumentSource, baseLog *logger.Logger) *Executor {
	return &Executor{
		stages:    stages,
		documents: documents,
		log:       baseLog.With("component", "PipelineExecutor"),
	}
}

type stageSummary struct {
	Stage      runtime.StageName `json:"stage"`
	DurationMS int64             `json:"duration_ms"`
}

// Execute runs rc.Run's scope. It returns nil on success, pkgerrors.ErrCancelled
// when cancellation was observed at a checkpoint, an input error when the
// scope's precondition fails, or a *StageError.
func (e *Executor) Execute(rc *runtime.Context) (err error) {
	if rc == nil || rc.Run == nil {
		return fmt.Errorf("run context required")
	}
	plan, err := PlanFor(rc.Run.Scope)
	if err != nil {
		return err
	}
	stages := make([]runtime.Stage, 0, len(plan.Stages))
	for _, name := range plan.Stages {
		s, ok := e.stages.Get(name)
		if !ok {
			return fmt.Errorf("no stage registered for %s", name)
		}
		stages = append(stages, s)
	}

	baseCtx := rc.Ctx
	runCtx, span := observability.StartRunSpan(baseCtx, rc.Run)
	rc.Ctx = runCtx
	defer func() {
		rc.Ctx = baseCtx
		observability.EndSpan(span, err)
	}()

	log := e.log.With("run_id", rc.Run.ID, "project_id", rc.Run.ProjectID, "scope", rc.Run.Scope)

	if err := rc.Checkpoint(); err != nil {
		return err
	}
	rc.SetStep("prepare")
	if err := e.checkInput(rc, plan); err != nil {
		return err
	}
	if err := rc.Checkpoint(); err != nil {
		return err
	}
	if err := e.clearOutputs(rc, plan); err != nil {
		return fmt.Errorf("clear outputs: %w", err)
	}
	rc.Info(fmt.Sprintf("Cleared %d output tables for scope %s", len(plan.Clears), plan.Scope))

	summaries := make([]stageSummary, 0, len(stages))
	for i, stage := range stages {
		if err := rc.Checkpoint(); err != nil {
			log.Info("Run cancelled before stage", "stage", stage.Name())
			return err
		}
		name := stage.Name()
		rc.SetStep(string(name))
		rc.Info(fmt.Sprintf("Starting %s (%d/%d)", name, i+1, len(stages)))

		stageCtx, stageSpan := observability.StartStageSpan(runCtx, string(name))
		rc.Ctx = stageCtx
		started := time.Now()
		runErr := stage.Run(rc)
		rc.Ctx = runCtx
		observability.EndSpan(stageSpan, runErr)

		if runErr != nil {
			if IsCancelled(runErr) {
				log.Info("Run cancelled inside stage", "stage", name)
				return pkgerrors.ErrCancelled
			}
			log.Warn("Stage failed", "stage", name, "error", runErr)
			return &StageError{Stage: name, Err: runErr}
		}
		summaries = append(summaries, stageSummary{Stage: name, DurationMS: time.Since(started).Milliseconds()})
		log.Debug("Stage finished", "stage", name)
	}

	rc.SetMetadata("stages", summaries)
	if err := rc.FlushMetadata(); err != nil {
		log.Warn("Failed to store run metadata", "error", err)
	}
	return nil
}

func (e *Executor) checkInput(rc *runtime.Context, plan Plan) error {
	dbc := rc.DBC()
	pid := rc.ProjectID()
	switch plan.Requires {
	case RequireDocuments:
		docs, err := e.documents.Load(dbc, rc.Project)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return ErrNoDocuments
		}
		rc.SetMetadata("documents", len(docs))
		rc.Info(fmt.Sprintf("Loaded %d documents", len(docs)))
	case RequireTerms:
		n, err := rc.Repos.Term.CountByProject(dbc, pid)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoTerms
		}
	case RequireProvisional:
		n, err := rc.Repos.Provisional.CountByProject(dbc, pid)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoProvisional
		}
	default:
		return fmt.Errorf("unknown requirement %d", plan.Requires)
	}
	return nil
}

// clearOutputs deletes the scope's outputs in one transaction on the run's connection.
func (e *Executor) clearOutputs(rc *runtime.Context, plan Plan) error {
	pid := rc.ProjectID()
	return rc.DB.WithContext(rc.CallCtx()).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: rc.CallCtx(), Tx: tx}
		for _, out := range plan.Clears {
			var err error
			switch out {
			case OutputTerms:
				_, err = rc.Repos.Term.DeleteByProject(dbc, pid)
			case OutputProvisional:
				_, err = rc.Repos.Provisional.DeleteByProject(dbc, pid)
			case OutputIssues:
				_, err = rc.Repos.Issue.DeleteByProject(dbc, pid)
			case OutputRefined:
				_, err = rc.Repos.Refined.DeleteByProject(dbc, pid)
			default:
				err = fmt.Errorf("unknown output %q", out)
			}
			if err != nil {
				return fmt.Errorf("clear %s: %w", out, err)
			}
		}
		return nil
	})
}
