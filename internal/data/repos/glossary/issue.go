package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type IssueRepo interface {
	Create(dbc dbctx.Context, issues []*types.Issue) ([]*types.Issue, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Issue, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type issueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIssueRepo(db *gorm.DB, baseLog *logger.Logger) IssueRepo {
	return &issueRepo{db: db, log: baseLog.With("repo", "IssueRepo")}
}

func (r *issueRepo) Create(dbc dbctx.Context, issues []*types.Issue) ([]*types.Issue, error) {
	return createRows(dbc.DB(r.db), issues)
}

func (r *issueRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Issue, error) {
	return listByProject[types.Issue](dbc.DB(r.db), projectID, "term ASC, created_at ASC")
}

func (r *issueRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return countByProject[types.Issue](dbc.DB(r.db), projectID)
}

func (r *issueRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return deleteByProject[types.Issue](dbc.DB(r.db), projectID)
}
