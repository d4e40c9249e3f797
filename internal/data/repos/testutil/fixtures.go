package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Project {
	tb.Helper()
	p := &types.Project{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name, content string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		Source:    types.DocumentSourceUpload,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedTerms(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, terms ...string) []*types.Term {
	tb.Helper()
	out := make([]*types.Term, 0, len(terms))
	for _, term := range terms {
		out = append(out, &types.Term{ID: uuid.New(), ProjectID: projectID, Term: term, Occurrences: 1})
	}
	if len(out) == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed terms: %v", err)
	}
	return out
}

func SeedProvisional(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, terms ...string) []*types.ProvisionalEntry {
	tb.Helper()
	out := make([]*types.ProvisionalEntry, 0, len(terms))
	for _, term := range terms {
		out = append(out, &types.ProvisionalEntry{
			ID:         uuid.New(),
			ProjectID:  projectID,
			Term:       term,
			Definition: "draft definition of " + term,
			Confidence: 0.5,
		})
	}
	if len(out) == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed provisional entries: %v", err)
	}
	return out
}
