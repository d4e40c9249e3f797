package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/glossary-backend/internal/data/repos"
	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
)

// GlossaryService exposes the persisted outputs of each pipeline stage.
type GlossaryService interface {
	Terms(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Term, error)
	Provisional(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProvisionalEntry, error)
	Issues(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Issue, error)
	Refined(dbc dbctx.Context, projectID uuid.UUID) ([]*types.RefinedEntry, error)
}

type glossaryService struct {
	projects ProjectService
	rs       repos.Set
}

func NewGlossaryService(projects ProjectService, rs repos.Set) GlossaryService {
	return &glossaryService{projects: projects, rs: rs}
}

func listFor[T any](s *glossaryService, dbc dbctx.Context, projectID uuid.UUID, code string, list func(dbctx.Context, uuid.UUID) ([]*T, error)) ([]*T, error) {
	if _, err := s.projects.Get(dbc, projectID); err != nil {
		return nil, err
	}
	out, err := list(dbc, projectID)
	if err != nil {
		return nil, toAPIError(err, code)
	}
	if out == nil {
		out = []*T{}
	}
	return out, nil
}

func (s *glossaryService) Terms(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Term, error) {
	return listFor(s, dbc, projectID, "list_terms_failed", s.rs.Term.ListByProject)
}

func (s *glossaryService) Provisional(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProvisionalEntry, error) {
	return listFor(s, dbc, projectID, "list_provisional_failed", s.rs.Provisional.ListByProject)
}

func (s *glossaryService) Issues(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Issue, error) {
	return listFor(s, dbc, projectID, "list_issues_failed", s.rs.Issue.ListByProject)
}

func (s *glossaryService) Refined(dbc dbctx.Context, projectID uuid.UUID) ([]*types.RefinedEntry, error) {
	return listFor(s, dbc, projectID, "list_refined_failed", s.rs.Refined.ListByProject)
}
