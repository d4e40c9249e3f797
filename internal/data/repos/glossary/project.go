package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, project *types.Project) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context) ([]*types.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, project *types.Project) (*types.Project, error) {
	transaction := dbc.DB(r.db)
	if err := transaction.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var project types.Project
	if err := transaction.
		Where("id = ?", id).
		Limit(1).
		Find(&project).Error; err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, nil
	}
	return &project, nil
}

func (r *projectRepo) List(dbc dbctx.Context) ([]*types.Project, error) {
	transaction := dbc.DB(r.db)
	var out []*types.Project
	if err := transaction.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
