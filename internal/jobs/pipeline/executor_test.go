package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	"github.com/yungbote/glossary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
)

type spy struct {
	mu    sync.Mutex
	calls []runtime.StageName
}

func (s *spy) record(name runtime.StageName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *spy) names() []runtime.StageName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]runtime.StageName(nil), s.calls...)
}

// spyStages registers four stages that record their invocation and write one
// row per term into their output table.
func spyStages(t *testing.T, sp *spy, terms []string, override map[runtime.StageName]func(rc *runtime.Context) error) *runtime.Registry {
	t.Helper()
	reg := runtime.NewRegistry()
	defaults := map[runtime.StageName]func(rc *runtime.Context) error{
		runtime.StageExtract: func(rc *runtime.Context) error {
			rows := make([]*types.Term, 0, len(terms))
			for _, term := range terms {
				rows = append(rows, &types.Term{ProjectID: rc.ProjectID(), Term: term, Occurrences: 1})
			}
			_, err := rc.Repos.Term.Create(rc.DBC(), rows)
			return err
		},
		runtime.StageDraft: func(rc *runtime.Context) error {
			list, err := rc.Repos.Term.ListByProject(rc.DBC(), rc.ProjectID())
			if err != nil {
				return err
			}
			rows := make([]*types.ProvisionalEntry, 0, len(list))
			for i, term := range list {
				rows = append(rows, &types.ProvisionalEntry{ProjectID: rc.ProjectID(), Term: term.Term, Definition: "draft"})
				rc.Progress(i+1, len(list), "")
			}
			_, err = rc.Repos.Provisional.Create(rc.DBC(), rows)
			return err
		},
		runtime.StageReview: func(rc *runtime.Context) error { return nil },
		runtime.StageRefine: func(rc *runtime.Context) error {
			list, err := rc.Repos.Provisional.ListByProject(rc.DBC(), rc.ProjectID())
			if err != nil {
				return err
			}
			rows := make([]*types.RefinedEntry, 0, len(list))
			for _, e := range list {
				rows = append(rows, &types.RefinedEntry{ProjectID: rc.ProjectID(), Term: e.Term, Definition: "refined"})
			}
			_, err = rc.Repos.Refined.Create(rc.DBC(), rows)
			return err
		},
	}
	for _, name := range []runtime.StageName{runtime.StageExtract, runtime.StageDraft, runtime.StageReview, runtime.StageRefine} {
		fn := defaults[name]
		if o, ok := override[name]; ok {
			fn = o
		}
		name, fn := name, fn
		if err := reg.Register(runtime.StageFunc{StageName: name, Fn: func(rc *runtime.Context) error {
			sp.record(name)
			return fn(rc)
		}}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return reg
}

type fixture struct {
	db      *gorm.DB
	rs      repos.Set
	project *types.Project
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	project := testutil.SeedProject(t, context.Background(), db, "pipeline")
	return &fixture{db: db, rs: rs, project: project, root: t.TempDir()}
}

func (f *fixture) execute(t *testing.T, ctx context.Context, reg *runtime.Registry, scope types.Scope) error {
	t.Helper()
	logg := testutil.Logger(t)
	run, err := f.rs.Run.Create(dbctx.Context{Ctx: context.Background()}, &types.Run{ProjectID: f.project.ID, Scope: scope, Status: types.RunStatusRunning})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	rc := runtime.NewContext(ctx, f.db, run, f.project, f.rs, nil, logg)
	exec := NewExecutor(reg, NewDocumentSource(f.rs.Document, f.root, logg), logg)
	return exec.Execute(rc)
}

func (f *fixture) count(t *testing.T, out Output) int64 {
	t.Helper()
	dbc := dbctx.Context{Ctx: context.Background()}
	var (
		n   int64
		err error
	)
	switch out {
	case OutputTerms:
		n, err = f.rs.Term.CountByProject(dbc, f.project.ID)
	case OutputProvisional:
		n, err = f.rs.Provisional.CountByProject(dbc, f.project.ID)
	case OutputIssues:
		n, err = f.rs.Issue.CountByProject(dbc, f.project.ID)
	case OutputRefined:
		n, err = f.rs.Refined.CountByProject(dbc, f.project.ID)
	}
	if err != nil {
		t.Fatalf("count %s: %v", out, err)
	}
	return n
}

func TestPlanForNeverClearsDocuments(t *testing.T) {
	want := map[types.Scope]int{
		types.ScopeFull:                 4,
		types.ScopeFromTerms:            3,
		types.ScopeProvisionalToRefined: 2,
	}
	for scope, stages := range want {
		plan, err := PlanFor(scope)
		if err != nil {
			t.Fatalf("PlanFor(%s): %v", scope, err)
		}
		if len(plan.Stages) != stages {
			t.Fatalf("PlanFor(%s) stages: want=%d got=%d", scope, stages, len(plan.Stages))
		}
		if len(plan.Clears) != stages {
			t.Fatalf("PlanFor(%s) clears: want=%d got=%d", scope, stages, len(plan.Clears))
		}
	}
	if _, err := PlanFor(types.Scope("partial")); err == nil {
		t.Fatalf("PlanFor: expected error for unknown scope")
	}
}

func TestFromTermsSkipsExtract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedTerms(t, ctx, f.db, f.project.ID, "pod", "node")
	testutil.SeedProvisional(t, ctx, f.db, f.project.ID, "pod")

	sp := &spy{}
	if err := f.execute(t, ctx, spyStages(t, sp, nil, nil), types.ScopeFromTerms); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := sp.names()
	want := []runtime.StageName{runtime.StageDraft, runtime.StageReview, runtime.StageRefine}
	if len(got) != len(want) {
		t.Fatalf("stages: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages: want=%v got=%v", want, got)
		}
	}
	if n := f.count(t, OutputTerms); n != 2 {
		t.Fatalf("terms kept: want=2 got=%d", n)
	}
	if n := f.count(t, OutputProvisional); n != 2 {
		t.Fatalf("provisional regenerated: want=2 got=%d", n)
	}
}

func TestFullWithoutDocumentsFailsBeforeClearing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedTerms(t, ctx, f.db, f.project.ID, "kept")

	sp := &spy{}
	err := f.execute(t, ctx, spyStages(t, sp, []string{"x"}, nil), types.ScopeFull)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("Execute: want=%v got=%v", ErrNoDocuments, err)
	}
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("ErrNoDocuments should be an input error")
	}
	if calls := sp.names(); len(calls) != 0 {
		t.Fatalf("no stage should run, got %v", calls)
	}
	if n := f.count(t, OutputTerms); n != 1 {
		t.Fatalf("terms must survive a rejected run: want=1 got=%d", n)
	}
}

func TestScopePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sp := &spy{}
	reg := spyStages(t, sp, nil, nil)

	if err := f.execute(t, ctx, reg, types.ScopeFromTerms); !errors.Is(err, ErrNoTerms) {
		t.Fatalf("from_terms: want=%v got=%v", ErrNoTerms, err)
	}
	if err := f.execute(t, ctx, reg, types.ScopeProvisionalToRefined); !errors.Is(err, ErrNoProvisional) {
		t.Fatalf("provisional_to_refined: want=%v got=%v", ErrNoProvisional, err)
	}
}

func TestFullFallsBackToFilesystem(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.root, f.project.Name)
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"a.md":          "Pods run containers.",
		"sub/b.txt":     "Nodes run pods.",
		"image.png":     "binary",
		"empty.md":      "   ",
		".hidden/c.txt": "hidden",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	sp := &spy{}
	if err := f.execute(t, context.Background(), spyStages(t, sp, []string{"pod"}, nil), types.ScopeFull); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	docs, err := f.rs.Document.ListByProject(dbctx.Context{Ctx: context.Background()}, f.project.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents: want=2 got=%d", len(docs))
	}
	if docs[0].Name != "a.md" || docs[1].Name != "sub/b.txt" {
		t.Fatalf("documents: unexpected names %s, %s", docs[0].Name, docs[1].Name)
	}
	if docs[0].Source != types.DocumentSourceFilesystem {
		t.Fatalf("document source: want=%s got=%s", types.DocumentSourceFilesystem, docs[0].Source)
	}
}

func TestFullTwiceKeepsDocumentsAndReplacesOutputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedDocument(t, ctx, f.db, f.project.ID, "doc.md", "Pods and nodes.")

	first := &spy{}
	if err := f.execute(t, ctx, spyStages(t, first, []string{"pod", "node", "cluster"}, nil), types.ScopeFull); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := &spy{}
	if err := f.execute(t, ctx, spyStages(t, second, []string{"pod", "node"}, nil), types.ScopeFull); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n := f.count(t, OutputTerms); n != 2 {
		t.Fatalf("terms after second run: want=2 got=%d", n)
	}
	if n := f.count(t, OutputRefined); n != 2 {
		t.Fatalf("refined after second run: want=2 got=%d", n)
	}
	docs, _ := f.rs.Document.CountByProject(dbctx.Context{Ctx: ctx}, f.project.ID)
	if docs != 1 {
		t.Fatalf("documents after two runs: want=1 got=%d", docs)
	}
}

func TestCancellationStopsBeforeNextStage(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	testutil.SeedTerms(t, context.Background(), f.db, f.project.ID, "pod")

	sp := &spy{}
	reg := spyStages(t, sp, nil, map[runtime.StageName]func(rc *runtime.Context) error{
		runtime.StageDraft: func(rc *runtime.Context) error {
			cancel()
			return nil
		},
	})
	err := f.execute(t, ctx, reg, types.ScopeFromTerms)
	if !errors.Is(err, pkgerrors.ErrCancelled) {
		t.Fatalf("Execute: want=%v got=%v", pkgerrors.ErrCancelled, err)
	}
	if calls := sp.names(); len(calls) != 1 || calls[0] != runtime.StageDraft {
		t.Fatalf("stages after cancel: want=[draft] got=%v", calls)
	}
}

func TestStageErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedProvisional(t, ctx, f.db, f.project.ID, "pod")

	boom := errors.New("llm unavailable")
	reg := spyStages(t, &spy{}, nil, map[runtime.StageName]func(rc *runtime.Context) error{
		runtime.StageReview: func(rc *runtime.Context) error { return boom },
	})
	err := f.execute(t, ctx, reg, types.ScopeProvisionalToRefined)
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("Execute: expected *StageError, got %v", err)
	}
	if se.Stage != runtime.StageReview || !errors.Is(err, boom) {
		t.Fatalf("StageError: want stage=review wrapping boom, got %v", err)
	}
}
