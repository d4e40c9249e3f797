package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

// DocumentRepo has no delete: documents are user input and outlive every run.
type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	return createRows(dbc.DB(r.db), docs)
}

func (r *documentRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	return listByProject[types.Document](dbc.DB(r.db), projectID, "name ASC")
}

func (r *documentRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return countByProject[types.Document](dbc.DB(r.db), projectID)
}
