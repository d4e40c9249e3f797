package pipeline

import (
	"errors"
	"fmt"

	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
)

var (
	ErrNoDocuments   = fmt.Errorf("%w: no documents available for a full run", pkgerrors.ErrInvalidArgument)
	ErrNoTerms       = fmt.Errorf("%w: no extracted terms; run scope full first", pkgerrors.ErrInvalidArgument)
	ErrNoProvisional = fmt.Errorf("%w: no draft definitions; run scope from_terms first", pkgerrors.ErrInvalidArgument)
)

// StageError wraps a failure raised by a stage.
type StageError struct {
	Stage runtime.StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func IsCancelled(err error) bool {
	return errors.Is(err, pkgerrors.ErrCancelled)
}
