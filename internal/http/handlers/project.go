package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/glossary-backend/internal/http/response"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/services"
)

type ProjectHandler struct {
	log      *logger.Logger
	projects services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{log: log.With("handler", "ProjectHandler"), projects: projects}
}

type createProjectRequest struct {
	Name         string `json:"name"`
	DocumentRoot string `json:"document_root"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.projects.Create(requestDBC(c), req.Name, req.DocumentRoot)
	if err != nil {
		response.RespondServiceError(c, err, "create_project_failed")
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	list, err := h.projects.List(requestDBC(c))
	if err != nil {
		response.RespondServiceError(c, err, "list_projects_failed")
		return
	}
	response.RespondOK(c, gin.H{"projects": list})
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(requestDBC(c), id)
	if err != nil {
		response.RespondServiceError(c, err, "load_project_failed")
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}
