package services

import (
	"errors"
	"net/http"

	"github.com/yungbote/glossary-backend/internal/data/db"
	pkgerrors "github.com/yungbote/glossary-backend/internal/pkg/errors"
	"github.com/yungbote/glossary-backend/internal/platform/apierr"
)

var (
	errProjectNotFound = apierr.New(http.StatusNotFound, "project_not_found", errors.New("project not found"))
	errRunNotFound     = apierr.New(http.StatusNotFound, "run_not_found", errors.New("run not found"))
)

func invalid(code string, msg string) error {
	return apierr.New(http.StatusBadRequest, code, errors.New(msg))
}

// toAPIError maps sentinel errors onto HTTP-facing errors. Errors that are
// already *apierr.Error pass through unchanged.
func toAPIError(err error, fallbackCode string) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, pkgerrors.ErrConflict), db.IsUniqueViolation(err):
		return apierr.New(http.StatusConflict, fallbackCode, err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		return apierr.New(http.StatusNotFound, fallbackCode, err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, fallbackCode, err)
	}
	return apierr.New(http.StatusInternalServerError, fallbackCode, err)
}
