package steps

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	"github.com/yungbote/glossary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
)

type fakeLLM struct {
	mu      sync.Mutex
	calls   map[string]int
	onCall  func(schemaName string)
	failFor string
}

func newFakeLLM() *fakeLLM { return &fakeLLM{calls: map[string]int{}} }

func (f *fakeLLM) count(schemaName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[schemaName]
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.calls[schemaName]++
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(schemaName)
	}
	term := lineValue(user, "Term: ")
	if f.failFor != "" && term == f.failFor {
		return nil, errors.New("model unavailable")
	}
	switch schemaName {
	case "glossary_terms":
		return decode(`{"terms":[
			{"term":"Lexeme","category":"Concept"},
			{"term":" lexeme ","category":""},
			{"term":"morpheme","category":"concept"},
			{"term":"","category":"noise"}
		]}`), nil
	case "glossary_definition":
		if strings.Contains(user, "ISSUES:") {
			return map[string]any{"definition": "refined " + term, "confidence": 0.9}, nil
		}
		return map[string]any{"definition": "draft " + term, "confidence": 1.7}, nil
	case "glossary_review":
		if term == "morpheme" {
			return decode(`{"issues":[{"issue_type":"Vague","description":"too vague"}]}`), nil
		}
		return decode(`{"issues":[]}`), nil
	}
	return nil, errors.New("unexpected schema " + schemaName)
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not used")
}

func decode(s string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		panic(err)
	}
	return out
}

// lineValue returns the text after prefix on the first line that starts with it,
// without a trailing parenthesised category.
func lineValue(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			v := strings.TrimPrefix(line, prefix)
			if i := strings.Index(v, " ("); i >= 0 {
				v = v[:i]
			}
			return strings.TrimSpace(v)
		}
	}
	return ""
}

type fixture struct {
	rs      repos.Set
	rc      *runtime.Context
	llm     *fakeLLM
	deps    Deps
	project *types.Project
}

func newFixture(t *testing.T, ctx context.Context, batchSize int) *fixture {
	t.Helper()
	db := testutil.DB(t)
	logg := testutil.Logger(t)
	rs := repos.NewSet(db, logg)
	project := testutil.SeedProject(t, context.Background(), db, "linguistics")
	run, err := rs.Run.Create(dbctx.Context{Ctx: context.Background()}, &types.Run{
		ProjectID: project.ID,
		Scope:     types.ScopeFull,
		Status:    types.RunStatusRunning,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	llm := newFakeLLM()
	return &fixture{
		rs:      rs,
		rc:      runtime.NewContext(ctx, db, run, project, rs, nil, logg),
		llm:     llm,
		deps:    Deps{LLM: llm, Prompts: prompts, Log: logg, BatchSize: batchSize, Concurrency: 2},
		project: project,
	}
}

func TestRegisterRequiresDeps(t *testing.T) {
	if err := Register(runtime.NewRegistry(), Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestRegisterAddsAllStages(t *testing.T) {
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	reg := runtime.NewRegistry()
	if err := Register(reg, Deps{LLM: newFakeLLM(), Prompts: prompts, Log: testutil.Logger(t)}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, name := range []runtime.StageName{runtime.StageExtract, runtime.StageDraft, runtime.StageReview, runtime.StageRefine} {
		if _, ok := reg.Get(name); !ok {
			t.Fatalf("stage %s not registered", name)
		}
	}
}

func TestStagesProduceGlossary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ctx, 1)
	testutil.SeedDocument(t, ctx, f.rc.DB, f.project.ID, "intro.md",
		"A lexeme is an abstract unit. Each Lexeme has forms.\n\nA morpheme is smaller than a lexeme.")
	testutil.SeedDocument(t, ctx, f.rc.DB, f.project.ID, "notes.txt", "Morpheme boundaries matter.")

	for _, s := range []runtime.Stage{NewExtract(f.deps), NewDraft(f.deps), NewReview(f.deps), NewRefine(f.deps)} {
		if err := s.Run(f.rc); err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	terms, err := f.rs.Term.ListByProject(dbc, f.project.ID)
	if err != nil {
		t.Fatalf("list terms: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("terms: want=2 got=%d", len(terms))
	}
	occ := map[string]int{}
	for _, term := range terms {
		occ[term.Term] = term.Occurrences
	}
	if occ["Lexeme"] != 3 || occ["morpheme"] != 2 {
		t.Fatalf("occurrences: want Lexeme=3 morpheme=2 got=%v", occ)
	}

	drafts, err := f.rs.Provisional.ListByProject(dbc, f.project.ID)
	if err != nil {
		t.Fatalf("list provisional: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("provisional: want=2 got=%d", len(drafts))
	}
	for _, d := range drafts {
		if d.Confidence != 1 {
			t.Fatalf("confidence should be clamped: got=%v", d.Confidence)
		}
	}

	issues, err := f.rs.Issue.ListByProject(dbc, f.project.ID)
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues: want=1 got=%d", len(issues))
	}
	if issues[0].Term != "morpheme" || issues[0].IssueType != types.IssueType("other") {
		t.Fatalf("issue: want morpheme/other got=%s/%s", issues[0].Term, issues[0].IssueType)
	}
	if !strings.Contains(string(issues[0].Metadata), `"reported_type":"Vague"`) {
		t.Fatalf("issue metadata should keep the reported type: %s", issues[0].Metadata)
	}

	refined, err := f.rs.Refined.ListByProject(dbc, f.project.ID)
	if err != nil {
		t.Fatalf("list refined: %v", err)
	}
	defs := map[string]string{}
	for _, r := range refined {
		defs[r.Term] = r.Definition
	}
	if defs["morpheme"] != "refined morpheme" {
		t.Fatalf("morpheme: want rewritten definition got=%q", defs["morpheme"])
	}
	if defs["Lexeme"] != "draft Lexeme" {
		t.Fatalf("Lexeme: want copied draft got=%q", defs["Lexeme"])
	}
	if got := f.llm.count("glossary_review"); got != 2 {
		t.Fatalf("review calls: want=2 got=%d", got)
	}
}

func TestDraftStopsAtCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx, 1)
	testutil.SeedTerms(t, context.Background(), f.rc.DB, f.project.ID, "alpha", "beta", "gamma")

	var calls atomic.Int32
	f.llm.onCall = func(string) {
		if calls.Add(1) == 1 {
			cancel()
		}
	}

	err := NewDraft(f.deps).Run(f.rc)
	if !errors.Is(err, pkgerrors.ErrCancelled) {
		t.Fatalf("want ErrCancelled got=%v", err)
	}
	n, err := f.rs.Provisional.CountByProject(dbctx.Context{Ctx: context.Background()}, f.project.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("in-flight batch should be persisted: want=1 got=%d", n)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls after cancel: want=1 got=%d", got)
	}
}

func TestDraftReturnsModelErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ctx, 10)
	testutil.SeedTerms(t, ctx, f.rc.DB, f.project.ID, "alpha", "beta")
	f.llm.failFor = "beta"

	err := NewDraft(f.deps).Run(f.rc)
	if err == nil || !strings.Contains(err.Error(), "beta") {
		t.Fatalf("want error naming the term got=%v", err)
	}
	n, _ := f.rs.Provisional.CountByProject(dbctx.Context{Ctx: ctx}, f.project.ID)
	if n != 0 {
		t.Fatalf("failed batch must not be persisted: got=%d", n)
	}
}

func TestDraftReturnsPanicsAsErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ctx, 10)
	testutil.SeedTerms(t, ctx, f.rc.DB, f.project.ID, "alpha", "beta")
	f.llm.onCall = func(string) { panic("llm client blew up") }

	err := NewDraft(f.deps).Run(f.rc)
	if err == nil || !strings.Contains(err.Error(), "llm client blew up") {
		t.Fatalf("want panic surfaced as error got=%v", err)
	}
	n, _ := f.rs.Provisional.CountByProject(dbctx.Context{Ctx: ctx}, f.project.ID)
	if n != 0 {
		t.Fatalf("panicked batch must not be persisted: got=%d", n)
	}
}

func TestExtractRequiresDocuments(t *testing.T) {
	f := newFixture(t, context.Background(), 1)
	if err := NewExtract(f.deps).Run(f.rc); err == nil {
		t.Fatalf("expected error without documents")
	}
}

func TestLoadPromptsOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nprompts:\n  extract_terms:\n    schema_name: x\n    system: s\n    user: u\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPrompts(path); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("want missing prompt error got=%v", err)
	}
	if _, err := LoadPrompts(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("expected error for absent file")
	}
}

func TestBuildRendersInput(t *testing.T) {
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	p, err := prompts.Build(PromptRefineDefinition, Input{
		Project:    "linguistics",
		Term:       "morpheme",
		Definition: "a thing",
		Issues:     []IssueInput{{Type: "too_generic", Description: "says nothing"}},
		Snippets:   []string{"A morpheme is smaller than a lexeme."},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"Term: morpheme", "[too_generic] says nothing", "- A morpheme is smaller"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, p.User)
		}
	}
	if p.SchemaName != "glossary_definition" || p.Schema["type"] != "object" {
		t.Fatalf("unexpected schema: %s %v", p.SchemaName, p.Schema["type"])
	}
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("word ", 10) + "\n\n" + strings.Repeat("next ", 10)
	chunks := chunkText(text, 60)
	if len(chunks) != 2 {
		t.Fatalf("chunks: want=2 got=%d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 60 {
			t.Fatalf("chunk too long: %d", len(c))
		}
	}
	if got := chunkText("   ", 60); got != nil {
		t.Fatalf("blank text: want nil got=%v", got)
	}
}

func TestSnippetsFor(t *testing.T) {
	docs := []*types.Document{
		{Content: "The LEXEME appears here."},
		{Content: "nothing"},
		{Content: "lexeme again and lexeme"},
	}
	got := snippetsFor("lexeme", docs)
	if len(got) != 2 {
		t.Fatalf("snippets: want=2 got=%d (%v)", len(got), got)
	}
	if got[0] != "The LEXEME appears here." {
		t.Fatalf("snippet: got=%q", got[0])
	}
}
