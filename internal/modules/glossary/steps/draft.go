package steps

import (
	"context"
	"fmt"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// Draft writes a provisional definition for every extracted term.
type Draft struct {
	deps Deps
	log  *logger.Logger
}

func NewDraft(deps Deps) *Draft {
	return &Draft{deps: deps, log: deps.Log.With("stage", runtime.StageDraft)}
}

func (s *Draft) Name() runtime.StageName { return runtime.StageDraft }

func (s *Draft) Run(rc *runtime.Context) error {
	dbc := rc.DBC()
	terms, err := rc.Repos.Term.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list terms: %w", err)
	}
	docs, err := rc.Repos.Document.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	total := len(terms)
	done := 0
	rc.Progress(0, total, fmt.Sprintf("Drafting definitions for %d terms", total))
	for _, b := range batches(total, s.deps.batchSize()) {
		if err := rc.Checkpoint(); err != nil {
			return err
		}
		batch := terms[b[0]:b[1]]
		rows := make([]*types.ProvisionalEntry, len(batch))
		err := fanOut(rc, len(batch), s.deps.concurrency(), func(ctx context.Context, i int) error {
			t := batch[i]
			obj, err := s.deps.generate(ctx, PromptDraftDefinition, Input{
				Project:  projectName(rc),
				Term:     t.Term,
				Category: t.Category,
				Snippets: snippetsFor(t.Term, docs),
			})
			if err != nil {
				return fmt.Errorf("draft %q: %w", t.Term, err)
			}
			def, conf, err := definitionFrom(obj)
			if err != nil {
				return fmt.Errorf("draft %q: %w", t.Term, err)
			}
			rows[i] = &types.ProvisionalEntry{
				ProjectID:  rc.ProjectID(),
				Term:       t.Term,
				Definition: def,
				Confidence: conf,
			}
			return nil
		})
		if err != nil {
			return err
		}
		if _, err := rc.Repos.Provisional.Create(dbc, rows); err != nil {
			return fmt.Errorf("persist provisional entries: %w", err)
		}
		done += len(batch)
		rc.Progress(done, total, fmt.Sprintf("Drafted %d/%d definitions", done, total))
	}
	rc.SetMetadata("provisional", total)
	s.log.Debug("Draft finished", "run_id", rc.Run.ID, "entries", total)
	return nil
}
