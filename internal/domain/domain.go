package domain

import (
	"github.com/yungbote/glossary-backend/internal/domain/glossary"
	"github.com/yungbote/glossary-backend/internal/domain/jobs"
)

type Run = jobs.Run
type RunStatus = jobs.RunStatus
type Scope = jobs.Scope
type Event = jobs.Event
type EventLevel = jobs.EventLevel

const (
	RunStatusPending   = jobs.RunStatusPending
	RunStatusRunning   = jobs.RunStatusRunning
	RunStatusCompleted = jobs.RunStatusCompleted
	RunStatusFailed    = jobs.RunStatusFailed
	RunStatusCancelled = jobs.RunStatusCancelled

	ScopeFull                 = jobs.ScopeFull
	ScopeFromTerms            = jobs.ScopeFromTerms
	ScopeProvisionalToRefined = jobs.ScopeProvisionalToRefined

	EventLevelInfo  = jobs.EventLevelInfo
	EventLevelError = jobs.EventLevelError
)

type Project = glossary.Project
type Document = glossary.Document
type DocumentSource = glossary.DocumentSource
type Term = glossary.Term
type ProvisionalEntry = glossary.ProvisionalEntry
type Issue = glossary.Issue
type IssueType = glossary.IssueType
type RefinedEntry = glossary.RefinedEntry

const (
	DocumentSourceUpload     = glossary.DocumentSourceUpload
	DocumentSourceFilesystem = glossary.DocumentSourceFilesystem
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&glossary.Project{},
		&glossary.Document{},
		&glossary.Term{},
		&glossary.ProvisionalEntry{},
		&glossary.Issue{},
		&glossary.RefinedEntry{},
		&jobs.Run{},
	}
}
