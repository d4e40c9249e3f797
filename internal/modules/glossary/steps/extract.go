package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// Extract asks the model for candidate terms in every project document and
// persists the merged term list.
type Extract struct {
	deps Deps
	log  *logger.Logger
}

func NewExtract(deps Deps) *Extract {
	return &Extract{deps: deps, log: deps.Log.With("stage", runtime.StageExtract)}
}

func (s *Extract) Name() runtime.StageName { return runtime.StageExtract }

type candidate struct {
	term     string
	category string
	order    int
}

func (s *Extract) Run(rc *runtime.Context) error {
	dbc := rc.DBC()
	docs, err := rc.Repos.Document.ListByProject(dbc, rc.ProjectID())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to extract from")
	}

	var (
		mu     sync.Mutex
		merged = map[string]*candidate{}
		seq    int
	)
	add := func(raw map[string]any) {
		term := strings.Join(strings.Fields(stringFromAny(raw["term"])), " ")
		key := termKey(term)
		if key == "" {
			return
		}
		category := strings.ToLower(stringFromAny(raw["category"]))
		mu.Lock()
		defer mu.Unlock()
		if c, ok := merged[key]; ok {
			if c.category == "" {
				c.category = category
			}
			return
		}
		merged[key] = &candidate{term: term, category: category, order: seq}
		seq++
	}

	rc.Progress(0, len(docs), fmt.Sprintf("Extracting terms from %d documents", len(docs)))
	for i, doc := range docs {
		if err := rc.Checkpoint(); err != nil {
			return err
		}
		chunks := chunkText(doc.Content, maxChunkChars)
		err := fanOut(rc, len(chunks), s.deps.concurrency(), func(ctx context.Context, j int) error {
			obj, err := s.deps.generate(ctx, PromptExtractTerms, Input{
				Project:  projectName(rc),
				Document: doc.Name,
				Text:     chunks[j],
			})
			if err != nil {
				return fmt.Errorf("extract %s chunk %d: %w", doc.Name, j+1, err)
			}
			for _, raw := range objectsFromAny(obj["terms"]) {
				add(raw)
			}
			return nil
		})
		if err != nil {
			return err
		}
		rc.Progress(i+1, len(docs), fmt.Sprintf("Extracted terms from %s (%d/%d)", doc.Name, i+1, len(docs)))
	}

	terms := buildTerms(rc, merged, docs)
	if _, err := rc.Repos.Term.Create(dbc, terms); err != nil {
		return fmt.Errorf("persist terms: %w", err)
	}
	rc.SetMetadata("terms", len(terms))
	rc.Info(fmt.Sprintf("Extracted %d terms", len(terms)))
	s.log.Debug("Extract finished", "run_id", rc.Run.ID, "terms", len(terms), "documents", len(docs))
	return nil
}

func buildTerms(rc *runtime.Context, merged map[string]*candidate, docs []*types.Document) []*types.Term {
	lowered := make([]string, 0, len(docs))
	for _, d := range docs {
		lowered = append(lowered, strings.ToLower(d.Content))
	}
	cands := make([]*candidate, 0, len(merged))
	for _, c := range merged {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].order < cands[j].order })

	out := make([]*types.Term, 0, len(cands))
	for _, c := range cands {
		n := countOccurrences(c.term, lowered)
		if n < 1 {
			n = 1
		}
		out = append(out, &types.Term{
			ProjectID:   rc.ProjectID(),
			Term:        c.term,
			Category:    c.category,
			Occurrences: n,
		})
	}
	return out
}
