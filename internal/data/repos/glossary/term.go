package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type TermRepo interface {
	Create(dbc dbctx.Context, terms []*types.Term) ([]*types.Term, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Term, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type termRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTermRepo(db *gorm.DB, baseLog *logger.Logger) TermRepo {
	return &termRepo{db: db, log: baseLog.With("repo", "TermRepo")}
}

func (r *termRepo) Create(dbc dbctx.Context, terms []*types.Term) ([]*types.Term, error) {
	return createRows(dbc.DB(r.db), terms)
}

func (r *termRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Term, error) {
	return listByProject[types.Term](dbc.DB(r.db), projectID, "occurrences DESC, term ASC")
}

func (r *termRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return countByProject[types.Term](dbc.DB(r.db), projectID)
}

func (r *termRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return deleteByProject[types.Term](dbc.DB(r.db), projectID)
}
