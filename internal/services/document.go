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

type DocumentService interface {
	Upload(dbc dbctx.Context, projectID uuid.UUID, name string, content string) (*types.Document, error)
	List(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error)
}

type documentService struct {
	log      *logger.Logger
	projects ProjectService
	docs     repos.DocumentRepo
}

func NewDocumentService(baseLog *logger.Logger, projects ProjectService, docs repos.DocumentRepo) DocumentService {
	return &documentService{
		log:      baseLog.With("service", "DocumentService"),
		projects: projects,
		docs:     docs,
	}
}

func (s *documentService) Upload(dbc dbctx.Context, projectID uuid.UUID, name string, content string) (*types.Document, error) {
	if _, err := s.projects.Get(dbc, projectID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("invalid_document", "name is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, invalid("invalid_document", "content is required")
	}
	doc := &types.Document{
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		Source:    types.DocumentSourceUpload,
	}
	if _, err := s.docs.Create(dbc, []*types.Document{doc}); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apierr.New(http.StatusConflict, "document_exists", errors.New("a document with this name already exists in the project"))
		}
		return nil, toAPIError(err, "upload_document_failed")
	}
	s.log.Info("Document uploaded", "project_id", projectID, "document_id", doc.ID, "bytes", len(content))
	return doc, nil
}

func (s *documentService) List(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	if _, err := s.projects.Get(dbc, projectID); err != nil {
		return nil, err
	}
	out, err := s.docs.ListByProject(dbc, projectID)
	if err != nil {
		return nil, toAPIError(err, "list_documents_failed")
	}
	return out, nil
}
