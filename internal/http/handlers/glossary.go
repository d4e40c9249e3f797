package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/glossary-backend/internal/http/response"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/services"
)

type GlossaryHandler struct {
	log      *logger.Logger
	glossary services.GlossaryService
}

func NewGlossaryHandler(log *logger.Logger, glossary services.GlossaryService) *GlossaryHandler {
	return &GlossaryHandler{log: log.With("handler", "GlossaryHandler"), glossary: glossary}
}

func listHandler[T any](key string, code string, list func(dbctx.Context, uuid.UUID) ([]*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		out, err := list(requestDBC(c), projectID)
		if err != nil {
			response.RespondServiceError(c, err, code)
			return
		}
		response.RespondOK(c, gin.H{key: out})
	}
}

// GET /api/projects/:id/terms
func (h *GlossaryHandler) Terms(c *gin.Context) {
	listHandler("terms", "list_terms_failed", h.glossary.Terms)(c)
}

// GET /api/projects/:id/provisional
func (h *GlossaryHandler) Provisional(c *gin.Context) {
	listHandler("entries", "list_provisional_failed", h.glossary.Provisional)(c)
}

// GET /api/projects/:id/issues
func (h *GlossaryHandler) Issues(c *gin.Context) {
	listHandler("issues", "list_issues_failed", h.glossary.Issues)(c)
}

// GET /api/projects/:id/refined
func (h *GlossaryHandler) Refined(c *gin.Context) {
	listHandler("entries", "list_refined_failed", h.glossary.Refined)(c)
}
