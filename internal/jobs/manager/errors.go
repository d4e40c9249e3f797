package manager

import (
	"fmt"

	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
)

var (
	ErrAlreadyRunning = fmt.Errorf("%w: a run is already active for this project", pkgerrors.ErrConflict)
	ErrRunNotActive   = fmt.Errorf("%w: run is not active", pkgerrors.ErrNotFound)
	ErrInvalidScope   = fmt.Errorf("%w: scope must be one of full, from_terms, provisional_to_refined", pkgerrors.ErrInvalidArgument)
	ErrProjectMissing = fmt.Errorf("%w: project does not exist", pkgerrors.ErrNotFound)
	ErrShuttingDown   = fmt.Errorf("run manager is shutting down")
)

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
