package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/glossary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
)

func TestRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRunRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "runs")
	other := testutil.SeedProject(t, ctx, tx, "other")

	older, err := repo.Create(dbc, &types.Run{ProjectID: project.ID, Scope: types.ScopeFull, CreatedAt: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if older.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}
	if older.Status != types.RunStatusPending {
		t.Fatalf("Create: want=%v got=%v", types.RunStatusPending, older.Status)
	}
	newer, err := repo.Create(dbc, &types.Run{ProjectID: project.ID, Scope: types.ScopeFromTerms})
	if err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	got, err := repo.GetByID(dbc, newer.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v run=%v", err, got)
	}
	if got.Scope != types.ScopeFromTerms {
		t.Fatalf("GetByID scope: want=%v got=%v", types.ScopeFromTerms, got.Scope)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v run=%v", err, missing)
	}
	if wrong, err := repo.GetByProjectAndID(dbc, other.ID, newer.ID); err != nil || wrong != nil {
		t.Fatalf("GetByProjectAndID other project: err=%v run=%v", err, wrong)
	}

	list, err := repo.ListByProject(dbc, project.ID, 0)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("ListByProject: expected newest first, got %d rows", len(list))
	}

	// Terminal rows are protected from late progress writes.
	now := time.Now().UTC()
	if err := repo.UpdateFields(dbc, older.ID, map[string]interface{}{
		"status":       string(types.RunStatusCompleted),
		"completed_at": now,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	changed, err := repo.UpdateFieldsUnlessStatus(dbc, older.ID, domainjobs.TerminalStatuses(), map[string]interface{}{
		"progress_current": 5,
	})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if changed {
		t.Fatalf("UpdateFieldsUnlessStatus: expected no change on terminal run")
	}

	active, err := repo.ListByStatus(dbc, domainjobs.ActiveStatuses())
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(active) != 1 || active[0].ID != newer.ID {
		t.Fatalf("ListByStatus: want=[%v] got=%d rows", newer.ID, len(active))
	}

	n, err := repo.FailActive(dbc, "interrupted")
	if err != nil {
		t.Fatalf("FailActive: %v", err)
	}
	if n != 1 {
		t.Fatalf("FailActive: want=1 got=%d", n)
	}
	got, _ = repo.GetByID(dbc, newer.ID)
	if got.Status != types.RunStatusFailed || got.ErrorMessage == nil || *got.ErrorMessage != "interrupted" {
		t.Fatalf("FailActive: unexpected run state status=%v err=%v", got.Status, got.ErrorMessage)
	}
	if got.CompletedAt == nil {
		t.Fatalf("FailActive: expected completed_at to be set")
	}
}
