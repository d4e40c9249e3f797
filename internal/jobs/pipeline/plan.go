package pipeline

import (
	"fmt"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
)

// Output is a persisted table a scope regenerates.
type Output string

const (
	OutputTerms       Output = "terms"
	OutputProvisional Output = "provisional"
	OutputIssues      Output = "issues"
	OutputRefined     Output = "refined"
)

// Requirement is the input a scope needs before anything is cleared.
type Requirement int

const (
	RequireDocuments Requirement = iota
	RequireTerms
	RequireProvisional
)

type Plan struct {
	Scope    types.Scope
	Requires Requirement
	Stages   []runtime.StageName
	Clears   []Output
}

// PlanFor maps a scope to its stages and the tables cleared before they run.
// Documents are input and appear in no plan's Clears.
func PlanFor(scope types.Scope) (Plan, error) {
	switch scope {
	case types.ScopeFull:
		return Plan{
			Scope:    scope,
			Requires: RequireDocuments,
			Stages:   []runtime.StageName{runtime.StageExtract, runtime.StageDraft, runtime.StageReview, runtime.StageRefine},
			Clears:   []Output{OutputTerms, OutputProvisional, OutputIssues, OutputRefined},
		}, nil
	case types.ScopeFromTerms:
		return Plan{
			Scope:    scope,
			Requires: RequireTerms,
			Stages:   []runtime.StageName{runtime.StageDraft, runtime.StageReview, runtime.StageRefine},
			Clears:   []Output{OutputProvisional, OutputIssues, OutputRefined},
		}, nil
	case types.ScopeProvisionalToRefined:
		return Plan{
			Scope:    scope,
			Requires: RequireProvisional,
			Stages:   []runtime.StageName{runtime.StageReview, runtime.StageRefine},
			Clears:   []Output{OutputIssues, OutputRefined},
		}, nil
	default:
		return Plan{}, fmt.Errorf("unknown scope %q", scope)
	}
}
