package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type ProvisionalEntryRepo interface {
	Create(dbc dbctx.Context, entries []*types.ProvisionalEntry) ([]*types.ProvisionalEntry, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProvisionalEntry, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type provisionalEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProvisionalEntryRepo(db *gorm.DB, baseLog *logger.Logger) ProvisionalEntryRepo {
	return &provisionalEntryRepo{db: db, log: baseLog.With("repo", "ProvisionalEntryRepo")}
}

func (r *provisionalEntryRepo) Create(dbc dbctx.Context, entries []*types.ProvisionalEntry) ([]*types.ProvisionalEntry, error) {
	return createRows(dbc.DB(r.db), entries)
}

func (r *provisionalEntryRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProvisionalEntry, error) {
	return listByProject[types.ProvisionalEntry](dbc.DB(r.db), projectID, "term ASC")
}

func (r *provisionalEntryRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return countByProject[types.ProvisionalEntry](dbc.DB(r.db), projectID)
}

func (r *provisionalEntryRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return deleteByProject[types.ProvisionalEntry](dbc.DB(r.db), projectID)
}
