package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type RefinedEntryRepo interface {
	Create(dbc dbctx.Context, entries []*types.RefinedEntry) ([]*types.RefinedEntry, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.RefinedEntry, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type refinedEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefinedEntryRepo(db *gorm.DB, baseLog *logger.Logger) RefinedEntryRepo {
	return &refinedEntryRepo{db: db, log: baseLog.With("repo", "RefinedEntryRepo")}
}

func (r *refinedEntryRepo) Create(dbc dbctx.Context, entries []*types.RefinedEntry) ([]*types.RefinedEntry, error) {
	return createRows(dbc.DB(r.db), entries)
}

func (r *refinedEntryRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.RefinedEntry, error) {
	return listByProject[types.RefinedEntry](dbc.DB(r.db), projectID, "term ASC")
}

func (r *refinedEntryRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return countByProject[types.RefinedEntry](dbc.DB(r.db), projectID)
}

func (r *refinedEntryRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return deleteByProject[types.RefinedEntry](dbc.DB(r.db), projectID)
}
