package glossary

import (
	"context"
	"testing"

	"github.com/yungbote/glossary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
)

func TestProjectRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProjectRepo(db, testutil.Logger(t))

	p, err := repo.Create(dbc, &types.Project{Name: "beta"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, &types.Project{Name: "alpha"}); err != nil {
		t.Fatalf("Create alpha: %v", err)
	}
	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil || got.Name != "beta" {
		t.Fatalf("GetByID: err=%v project=%v", err, got)
	}
	all, err := repo.List(dbc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Name != "alpha" {
		t.Fatalf("List: expected name order, got %d rows", len(all))
	}
}

func TestOutputReposClearOnlyTheirProject(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	logg := testutil.Logger(t)

	terms := NewTermRepo(db, logg)
	provisional := NewProvisionalEntryRepo(db, logg)
	issues := NewIssueRepo(db, logg)
	refined := NewRefinedEntryRepo(db, logg)
	docs := NewDocumentRepo(db, logg)

	a := testutil.SeedProject(t, ctx, tx, "a")
	b := testutil.SeedProject(t, ctx, tx, "b")

	testutil.SeedDocument(t, ctx, tx, a.ID, "intro.md", "Kubernetes schedules pods.")
	testutil.SeedTerms(t, ctx, tx, a.ID, "pod", "node")
	testutil.SeedTerms(t, ctx, tx, b.ID, "pod")
	testutil.SeedProvisional(t, ctx, tx, a.ID, "pod")

	if _, err := issues.Create(dbc, []*types.Issue{
		{ProjectID: a.ID, Term: "pod", IssueType: types.IssueType("unclear"), Description: "vague"},
	}); err != nil {
		t.Fatalf("issues.Create: %v", err)
	}
	if _, err := refined.Create(dbc, []*types.RefinedEntry{
		{ProjectID: a.ID, Term: "pod", Definition: "smallest deployable unit"},
	}); err != nil {
		t.Fatalf("refined.Create: %v", err)
	}

	if n, err := terms.CountByProject(dbc, a.ID); err != nil || n != 2 {
		t.Fatalf("terms.CountByProject: want=2 got=%d err=%v", n, err)
	}

	if _, err := terms.DeleteByProject(dbc, a.ID); err != nil {
		t.Fatalf("terms.DeleteByProject: %v", err)
	}
	if _, err := provisional.DeleteByProject(dbc, a.ID); err != nil {
		t.Fatalf("provisional.DeleteByProject: %v", err)
	}
	if _, err := issues.DeleteByProject(dbc, a.ID); err != nil {
		t.Fatalf("issues.DeleteByProject: %v", err)
	}
	if _, err := refined.DeleteByProject(dbc, a.ID); err != nil {
		t.Fatalf("refined.DeleteByProject: %v", err)
	}

	if n, _ := terms.CountByProject(dbc, a.ID); n != 0 {
		t.Fatalf("terms after delete: want=0 got=%d", n)
	}
	if n, _ := terms.CountByProject(dbc, b.ID); n != 1 {
		t.Fatalf("other project terms: want=1 got=%d", n)
	}
	if n, _ := docs.CountByProject(dbc, a.ID); n != 1 {
		t.Fatalf("documents: want=1 got=%d", n)
	}

	// The same unique keys can be inserted again after a clear.
	testutil.SeedTerms(t, ctx, tx, a.ID, "pod")
	list, err := terms.ListByProject(dbc, a.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("terms.ListByProject: err=%v len=%d", err, len(list))
	}
}
