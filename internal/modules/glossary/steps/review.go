package steps

import (
	"context"
	"fmt"
	"strings"

	types "github.com/yungbote/glossary-backend/internal/domain"
	domainglossary "github.com/yungbote/glossary-backend/internal/domain/glossary"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// Review records the problems the model finds in each provisional entry.
type Review struct {
	deps Deps
	log  *logger.Logger
}

func NewReview(deps Deps) *Review {
	return &Review{deps: deps, log: deps.Log.With("stage", runtime.StageReview)}
}

func (s *Review) Name() runtime.StageName { return runtime.StageReview }

func (s *Review) Run(rc *runtime.Context) error {
	dbc := rc.DBC()
	entries, err := rc.Repos.Provisional.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list provisional entries: %w", err)
	}
	docs, err := rc.Repos.Document.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	total := len(entries)
	done, found := 0, 0
	rc.Progress(0, total, fmt.Sprintf("Reviewing %d definitions", total))
	for _, b := range batches(total, s.deps.batchSize()) {
		if err := rc.Checkpoint(); err != nil {
			return err
		}
		batch := entries[b[0]:b[1]]
		perEntry := make([][]*types.Issue, len(batch))
		err := fanOut(rc, len(batch), s.deps.concurrency(), func(ctx context.Context, i int) error {
			e := batch[i]
			obj, err := s.deps.generate(ctx, PromptReviewEntry, Input{
				Project:    projectName(rc),
				Term:       e.Term,
				Definition: e.Definition,
				Snippets:   snippetsFor(e.Term, docs),
			})
			if err != nil {
				return fmt.Errorf("review %q: %w", e.Term, err)
			}
			perEntry[i] = issuesFrom(rc, e, obj)
			return nil
		})
		if err != nil {
			return err
		}
		var rows []*types.Issue
		for _, list := range perEntry {
			rows = append(rows, list...)
		}
		if _, err := rc.Repos.Issue.Create(dbc, rows); err != nil {
			return fmt.Errorf("persist issues: %w", err)
		}
		found += len(rows)
		done += len(batch)
		rc.Progress(done, total, fmt.Sprintf("Reviewed %d/%d definitions, %d issues", done, total, found))
	}
	rc.SetMetadata("issues", found)
	s.log.Debug("Review finished", "run_id", rc.Run.ID, "entries", total, "issues", found)
	return nil
}

func issuesFrom(rc *runtime.Context, e *types.ProvisionalEntry, obj map[string]any) []*types.Issue {
	raw := objectsFromAny(obj["issues"])
	out := make([]*types.Issue, 0, len(raw))
	for _, r := range raw {
		desc := stringFromAny(r["description"])
		if desc == "" {
			continue
		}
		rawType := stringFromAny(r["issue_type"])
		issue := &types.Issue{
			ProjectID:   rc.ProjectID(),
			Term:        e.Term,
			IssueType:   domainglossary.NormalizeIssueType(rawType),
			Description: desc,
		}
		meta := map[string]any{"confidence": e.Confidence}
		if !strings.EqualFold(rawType, string(issue.IssueType)) {
			meta["reported_type"] = rawType
		}
		issue.Metadata = mustJSON(meta)
		out = append(out, issue)
	}
	return out
}
