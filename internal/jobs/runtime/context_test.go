package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	"github.com/yungbote/glossary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
)

type eventLog struct {
	mu     sync.Mutex
	events []types.Event
}

func (l *eventLog) emit(ev types.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func TestContextProgressPersistsAndEmits(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	logg := testutil.Logger(t)
	rs := repos.NewSet(db, logg)

	project := testutil.SeedProject(t, ctx, db, "progress")
	run, err := rs.Run.Create(dbctx.Context{Ctx: ctx}, &types.Run{ProjectID: project.ID, Scope: types.ScopeFull, Status: types.RunStatusRunning})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	events := &eventLog{}
	rc := NewContext(ctx, db, run, project, rs, events.emit, logg)
	rc.SetStep(string(StageDraft))
	rc.Progress(3, 10, "")
	rc.SetMetadata("terms", 10)
	if err := rc.FlushMetadata(); err != nil {
		t.Fatalf("FlushMetadata: %v", err)
	}

	got, err := rs.Run.GetByID(dbctx.Context{Ctx: ctx}, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v", err)
	}
	if got.ProgressCurrent != 3 || got.ProgressTotal != 10 || got.CurrentStep != "draft" {
		t.Fatalf("persisted progress: want=3/10 draft got=%d/%d %s", got.ProgressCurrent, got.ProgressTotal, got.CurrentStep)
	}
	if len(got.Metadata) == 0 {
		t.Fatalf("expected metadata to be stored")
	}

	if len(events.events) != 1 {
		t.Fatalf("events: want=1 got=%d", len(events.events))
	}
	ev := events.events[0]
	if ev.ProgressCurrent != 3 || ev.ProgressTotal != 10 || ev.Step != "draft" || ev.RunID != run.ID {
		t.Fatalf("event does not match persisted progress: %+v", ev)
	}
}

func TestContextCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := NewContext(ctx, nil, nil, nil, repos.Set{}, nil, nil)
	if err := rc.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint before cancel: %v", err)
	}
	cancel()
	if err := rc.Checkpoint(); !errors.Is(err, pkgerrors.ErrCancelled) {
		t.Fatalf("Checkpoint after cancel: want=%v got=%v", pkgerrors.ErrCancelled, err)
	}
	if rc.CallCtx().Err() != nil {
		t.Fatalf("CallCtx should not observe cancellation")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	stage := StageFunc{StageName: StageExtract, Fn: func(*Context) error { return nil }}
	if err := reg.Register(stage); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(stage); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := reg.Register(StageFunc{}); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if _, ok := reg.Get(StageExtract); !ok {
		t.Fatalf("Get: expected extract stage")
	}
	if _, ok := reg.Get(StageRefine); ok {
		t.Fatalf("Get: unexpected refine stage")
	}
}
