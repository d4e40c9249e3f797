package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/glossary-backend/internal/http/response"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/services"
)

type DocumentHandler struct {
	log  *logger.Logger
	docs services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, docs services.DocumentService) *DocumentHandler {
	return &DocumentHandler{log: log.With("handler", "DocumentHandler"), docs: docs}
}

const maxDocumentBytes = 10 << 20

type uploadDocumentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// POST /api/projects/:id/documents
//
// Accepts either a JSON body or a multipart form with a "file" part.
func (h *DocumentHandler) Upload(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req uploadDocumentRequest
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
			return
		}
		req.Name = c.DefaultPostForm("name", fh.Filename)
		req.Content = string(raw)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	doc, err := h.docs.Upload(requestDBC(c), projectID, req.Name, req.Content)
	if err != nil {
		response.RespondServiceError(c, err, "upload_document_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// GET /api/projects/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	list, err := h.docs.List(requestDBC(c), projectID)
	if err != nil {
		response.RespondServiceError(c, err, "list_documents_failed")
		return
	}
	response.RespondOK(c, gin.H{"documents": list})
}
