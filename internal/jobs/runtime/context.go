package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

/*
Context is the execution handle for a single glossary run.
It carries:
  - Ctx: the run's cancellation signal. Cancelled when the run is cancelled or the process shuts down.
  - DB: the worker's private connection. Stages and the executor never use a shared pool handle.
  - Run / Project: the rows being worked on.
Stages report progress and log lines only through this object, so the
persisted run row and the live event stream never disagree.
*/
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Run     *types.Run
	Project *types.Project
	Repos   repos.Set

	emit func(types.Event)
	log  *logger.Logger

	mu       sync.Mutex
	step     string
	current  int
	total    int
	metadata map[string]any
}

func NewContext(ctx context.Context, db *gorm.DB, run *types.Run, project *types.Project, rs repos.Set, emit func(types.Event), log *logger.Logger) *Context {
	if emit == nil {
		emit = func(types.Event) {}
	}
	return &Context{
		Ctx:      ctx,
		DB:       db,
		Run:      run,
		Project:  project,
		Repos:    rs,
		emit:     emit,
		log:      log,
		metadata: map[string]any{},
	}
}

func (c *Context) ProjectID() uuid.UUID {
	if c.Run == nil {
		return uuid.Nil
	}
	return c.Run.ProjectID
}

func (c *Context) Logger() *logger.Logger { return c.log }

// CallCtx is the context for work already in flight (LLM calls, writes).
// It ignores cancellation, which only takes effect at Checkpoint.
func (c *Context) CallCtx() context.Context {
	return context.WithoutCancel(c.Ctx)
}

// DBC bundles the private connection with CallCtx for repository calls.
func (c *Context) DBC() dbctx.Context {
	return dbctx.Context{Ctx: c.CallCtx(), Tx: c.DB}
}

// Checkpoint returns pkgerrors.ErrCancelled once the run has been cancelled.
func (c *Context) Checkpoint() error {
	if c.Ctx.Err() != nil {
		return pkgerrors.ErrCancelled
	}
	return nil
}

// SetStep switches the current step label and resets progress to 0/0.
func (c *Context) SetStep(step string) {
	c.mu.Lock()
	c.step = step
	c.current = 0
	c.total = 0
	c.mu.Unlock()
	c.persistProgress(step, 0, 0)
}

// Progress persists progress_current/progress_total/current_step and emits a
// matching log event.
func (c *Context) Progress(current, total int, label string) {
	if total < 0 {
		total = 0
	}
	if current < 0 {
		current = 0
	}
	c.mu.Lock()
	step := c.step
	c.current = current
	c.total = total
	c.mu.Unlock()

	c.persistProgress(step, current, total)

	msg := label
	if msg == "" {
		msg = fmt.Sprintf("%s %d/%d", step, current, total)
	}
	c.send(types.EventLevelInfo, msg, step, current, total)
}

func (c *Context) Info(msg string) {
	step, current, total := c.snapshot()
	c.send(types.EventLevelInfo, msg, step, current, total)
}

func (c *Context) Error(msg string) {
	step, current, total := c.snapshot()
	c.send(types.EventLevelError, msg, step, current, total)
}

// SetMetadata records a value stored on the run row by FlushMetadata.
func (c *Context) SetMetadata(key string, value any) {
	c.mu.Lock()
	c.metadata[key] = value
	c.mu.Unlock()
}

func (c *Context) FlushMetadata() error {
	if c.Run == nil || c.Repos.Run == nil {
		return nil
	}
	c.mu.Lock()
	raw, err := json.Marshal(c.metadata)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = c.Repos.Run.UpdateFieldsUnlessStatus(c.DBC(), c.Run.ID, domainjobs.TerminalStatuses(), map[string]interface{}{
		"metadata": datatypes.JSON(raw),
	})
	return err
}

func (c *Context) snapshot() (string, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step, c.current, c.total
}

func (c *Context) send(level types.EventLevel, msg, step string, current, total int) {
	if c.Run == nil {
		return
	}
	c.emit(types.Event{
		RunID:           c.Run.ID,
		Level:           level,
		Message:         msg,
		Step:            step,
		ProgressCurrent: current,
		ProgressTotal:   total,
		Timestamp:       time.Now().UTC(),
	})
}

func (c *Context) persistProgress(step string, current, total int) {
	if c.Run == nil || c.Repos.Run == nil {
		return
	}
	if _, err := c.Repos.Run.UpdateFieldsUnlessStatus(c.DBC(), c.Run.ID, domainjobs.TerminalStatuses(), map[string]interface{}{
		"progress_current": current,
		"progress_total":   total,
		"current_step":     step,
	}); err != nil && c.log != nil {
		c.log.Warn("Failed to persist run progress", "run_id", c.Run.ID, "error", err)
	}
}
