package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/glossary-backend/internal/data/db"
	"github.com/yungbote/glossary-backend/internal/data/repos"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/apierr"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type ProjectService interface {
	Create(dbc dbctx.Context, name string, documentRoot string) (*types.Project, error)
	List(dbc dbctx.Context) ([]*types.Project, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
}

type projectService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
}

func NewProjectService(baseLog *logger.Logger, projects repos.ProjectRepo) ProjectService {
	return &projectService{
		log:      baseLog.With("service", "ProjectService"),
		projects: projects,
	}
}

func (s *projectService) Create(dbc dbctx.Context, name string, documentRoot string) (*types.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("invalid_project", "name is required")
	}
	project := &types.Project{Name: name, DocumentRoot: strings.TrimSpace(documentRoot)}
	created, err := s.projects.Create(dbc, project)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.New(http.StatusConflict, "project_exists", errors.New("a project with this name already exists"))
		}
		return nil, toAPIError(err, "create_project_failed")
	}
	s.log.Info("Project created", "project_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *projectService) List(dbc dbctx.Context) ([]*types.Project, error) {
	out, err := s.projects.List(dbc)
	if err != nil {
		return nil, toAPIError(err, "list_projects_failed")
	}
	return out, nil
}

func (s *projectService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.GetByID(dbc, id)
	if err != nil {
		return nil, toAPIError(err, "load_project_failed")
	}
	if p == nil {
		return nil, errProjectNotFound
	}
	return p, nil
}
