package runtime

// StageName identifies one step of the glossary pipeline.
type StageName string

const (
	StageExtract StageName = "extract"
	StageDraft   StageName = "draft"
	StageReview  StageName = "review"
	StageRefine  StageName = "refine"
)

// Stage is one pipeline step. It reads the persisted state it needs through
// the Context, persists what it produces, and reports progress through
// Context.Progress. Long loops should call Context.Checkpoint between batches.
type Stage interface {
	Name() StageName
	Run(rc *Context) error
}

// StageFunc adapts a plain function to Stage.
type StageFunc struct {
	StageName StageName
	Fn        func(rc *Context) error
}

func (f StageFunc) Name() StageName       { return f.StageName }
func (f StageFunc) Run(rc *Context) error { return f.Fn(rc) }
