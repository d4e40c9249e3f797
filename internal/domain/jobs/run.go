package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether s can never transition again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// TerminalStatuses is the guard list for conditional updates.
func TerminalStatuses() []string {
	return []string{string(RunStatusCompleted), string(RunStatusFailed), string(RunStatusCancelled)}
}

// ActiveStatuses are the statuses counted by the one-active-run-per-project rule.
func ActiveStatuses() []string {
	return []string{string(RunStatusPending), string(RunStatusRunning)}
}

// Scope selects which subsequence of the glossary pipeline a run executes.
type Scope string

const (
	ScopeFull                 Scope = "full"
	ScopeFromTerms            Scope = "from_terms"
	ScopeProvisionalToRefined Scope = "provisional_to_refined"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeFull, ScopeFromTerms, ScopeProvisionalToRefined:
		return true
	default:
		return false
	}
}

func ParseScope(raw string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown scope %q", raw)
	}
	return s, nil
}

// Run is one pipeline invocation. Only its own worker mutates status, progress and error.
type Run struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_glossary_run_project_status" json:"project_id"`
	Scope           Scope          `gorm:"column:scope;not null" json:"scope"`
	Status          RunStatus      `gorm:"column:status;not null;index:idx_glossary_run_project_status" json:"status"`
	ProgressCurrent int            `gorm:"column:progress_current;not null;default:0" json:"progress_current"`
	ProgressTotal   int            `gorm:"column:progress_total;not null;default:0" json:"progress_total"`
	CurrentStep     string         `gorm:"column:current_step" json:"current_step,omitempty"`
	ErrorMessage    *string        `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	StartedAt       *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Run) TableName() string { return "glossary_run" }

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the run still counts against its project's single active slot.
func (r *Run) IsActive() bool {
	return r != nil && !r.Status.IsTerminal()
}
