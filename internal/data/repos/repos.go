package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/glossary-backend/internal/data/repos/glossary"
	"github.com/yungbote/glossary-backend/internal/data/repos/jobs"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type ProjectRepo = glossary.ProjectRepo
type DocumentRepo = glossary.DocumentRepo
type TermRepo = glossary.TermRepo
type ProvisionalEntryRepo = glossary.ProvisionalEntryRepo
type IssueRepo = glossary.IssueRepo
type RefinedEntryRepo = glossary.RefinedEntryRepo

type RunRepo = jobs.RunRepo

// Set groups every repository so wiring code can pass them around as one value.
type Set struct {
	Project     ProjectRepo
	Document    DocumentRepo
	Term        TermRepo
	Provisional ProvisionalEntryRepo
	Issue       IssueRepo
	Refined     RefinedEntryRepo
	Run         RunRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Project:     glossary.NewProjectRepo(db, baseLog),
		Document:    glossary.NewDocumentRepo(db, baseLog),
		Term:        glossary.NewTermRepo(db, baseLog),
		Provisional: glossary.NewProvisionalEntryRepo(db, baseLog),
		Issue:       glossary.NewIssueRepo(db, baseLog),
		Refined:     glossary.NewRefinedEntryRepo(db, baseLog),
		Run:         jobs.NewRunRepo(db, baseLog),
	}
}
