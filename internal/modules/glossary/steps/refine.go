package steps

import (
	"context"
	"fmt"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// Refine rewrites entries that have review issues. Entries without issues
// are copied unchanged.
type Refine struct {
	deps Deps
	log  *logger.Logger
}

func NewRefine(deps Deps) *Refine {
	return &Refine{deps: deps, log: deps.Log.With("stage", runtime.StageRefine)}
}

func (s *Refine) Name() runtime.StageName { return runtime.StageRefine }

func (s *Refine) Run(rc *runtime.Context) error {
	dbc := rc.DBC()
	entries, err := rc.Repos.Provisional.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list provisional entries: %w", err)
	}
	issues, err := rc.Repos.Issue.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	docs, err := rc.Repos.Document.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	byTerm := map[string][]IssueInput{}
	for _, is := range issues {
		key := termKey(is.Term)
		if key == "" {
			continue
		}
		byTerm[key] = append(byTerm[key], IssueInput{Type: string(is.IssueType), Description: is.Description})
	}

	total := len(entries)
	done, rewritten := 0, 0
	rc.Progress(0, total, fmt.Sprintf("Refining %d definitions", total))
	for _, b := range batches(total, s.deps.batchSize()) {
		if err := rc.Checkpoint(); err != nil {
			return err
		}
		batch := entries[b[0]:b[1]]
		rows := make([]*types.RefinedEntry, len(batch))
		var pending []int
		for i, e := range batch {
			if len(byTerm[termKey(e.Term)]) == 0 {
				rows[i] = &types.RefinedEntry{
					ProjectID:  rc.ProjectID(),
					Term:       e.Term,
					Definition: e.Definition,
					Confidence: e.Confidence,
				}
				continue
			}
			pending = append(pending, i)
		}
		err := fanOut(rc, len(pending), s.deps.concurrency(), func(ctx context.Context, j int) error {
			e := batch[pending[j]]
			obj, err := s.deps.generate(ctx, PromptRefineDefinition, Input{
				Project:    projectName(rc),
				Term:       e.Term,
				Definition: e.Definition,
				Issues:     byTerm[termKey(e.Term)],
				Snippets:   snippetsFor(e.Term, docs),
			})
			if err != nil {
				return fmt.Errorf("refine %q: %w", e.Term, err)
			}
			def, conf, err := definitionFrom(obj)
			if err != nil {
				return fmt.Errorf("refine %q: %w", e.Term, err)
			}
			rows[pending[j]] = &types.RefinedEntry{
				ProjectID:  rc.ProjectID(),
				Term:       e.Term,
				Definition: def,
				Confidence: conf,
			}
			return nil
		})
		if err != nil {
			return err
		}
		if _, err := rc.Repos.Refined.Create(dbc, rows); err != nil {
			return fmt.Errorf("persist refined entries: %w", err)
		}
		rewritten += len(pending)
		done += len(batch)
		rc.Progress(done, total, fmt.Sprintf("Refined %d/%d definitions", done, total))
	}
	rc.SetMetadata("refined", total)
	rc.SetMetadata("rewritten", rewritten)
	s.log.Debug("Refine finished", "run_id", rc.Run.ID, "entries", total, "rewritten", rewritten)
	return nil
}
