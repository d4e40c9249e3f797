package glossary

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Term is produced by the extract stage.
type Term struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_term_project_term" json:"project_id"`
	Term        string    `gorm:"column:term;not null;uniqueIndex:idx_term_project_term" json:"term"`
	Category    string    `gorm:"column:category" json:"category,omitempty"`
	Occurrences int       `gorm:"column:occurrences;not null;default:0" json:"occurrences"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Term) TableName() string { return "term" }

func (t *Term) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProvisionalEntry is a draft definition produced by the draft stage.
type ProvisionalEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_provisional_project_term" json:"project_id"`
	Term       string    `gorm:"column:term;not null;uniqueIndex:idx_provisional_project_term" json:"term"`
	Definition string    `gorm:"column:definition;type:text;not null" json:"definition"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (ProvisionalEntry) TableName() string { return "provisional_entry" }

func (e *ProvisionalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type IssueType string

const (
	IssueUnclear        IssueType = "unclear"
	IssueContradiction  IssueType = "contradiction"
	IssueMissingContext IssueType = "missing_context"
	IssueTooGeneric     IssueType = "too_generic"
	IssueOther          IssueType = "other"
)

// NormalizeIssueType maps free-form model output onto the known issue types.
func NormalizeIssueType(raw string) IssueType {
	switch t := IssueType(strings.ToLower(strings.TrimSpace(raw))); t {
	case IssueUnclear, IssueContradiction, IssueMissingContext, IssueTooGeneric:
		return t
	default:
		return IssueOther
	}
}

// Issue is a review finding. An empty Term means the issue concerns the glossary as a whole.
type Issue struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Term        string         `gorm:"column:term;index" json:"term,omitempty"`
	IssueType   IssueType      `gorm:"column:issue_type;not null" json:"issue_type"`
	Description string         `gorm:"column:description;type:text;not null" json:"description"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (Issue) TableName() string { return "issue" }

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// RefinedEntry is the final glossary definition produced by the refine stage.
type RefinedEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_refined_project_term" json:"project_id"`
	Term       string    `gorm:"column:term;not null;uniqueIndex:idx_refined_project_term" json:"term"`
	Definition string    `gorm:"column:definition;type:text;not null" json:"definition"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (RefinedEntry) TableName() string { return "refined_entry" }

func (e *RefinedEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
