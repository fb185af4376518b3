package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"prdtool/internal/domain"
	"prdtool/internal/httputil"
)

// Error codes carried in the `code` field of problem responses
const (
	CodeNotFound   = "NOT_FOUND"
	CodeNoUpdate   = "NO_UPDATE"
	CodeNoChanges  = "NO_CHANGES"
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeStorage    = "STORAGE_ERROR"
	CodeAI         = "AI_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		notFoundErr   *domain.NotFoundError
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
	)

	switch {
	case errors.Is(err, domain.ErrNoDirective):
		httputil.RespondProblem(w, http.StatusBadRequest, "No update suggestion in this message", CodeNoUpdate)
	case errors.Is(err, domain.ErrNoChanges):
		httputil.RespondProblem(w, http.StatusBadRequest, "No changes to save", CodeNoChanges)
	case errors.As(err, &validationErr):
		httputil.RespondProblem(w, http.StatusBadRequest, validationErr.Message, CodeValidation)
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondProblem(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.As(err, &notFoundErr):
		httputil.RespondProblem(w, http.StatusNotFound, notFoundErr.Message, CodeNotFound)
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondProblem(w, http.StatusNotFound, "Resource not found", CodeNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &conflictErr):
		httputil.RespondProblem(w, http.StatusConflict, conflictErr.Message, CodeConflict)
	case errors.Is(err, domain.ErrCompletion):
		slog.Error("completion failed", "error", err)
		httputil.RespondProblem(w, http.StatusInternalServerError, "Failed to get AI response", CodeAI)
	case errors.Is(err, domain.ErrStorage):
		slog.Error("storage failure", "error", err)
		httputil.RespondProblem(w, http.StatusInternalServerError, "Failed to access document content", CodeStorage)
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondProblem(w, http.StatusInternalServerError, "internal server error", CodeInternal)
	}
}

// PathParam returns a non-empty path value, or writes a 400 and returns false
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondProblem(w, http.StatusBadRequest, label+" is required", CodeValidation)
		return "", false
	}
	return value, true
}

// UUIDParam is PathParam for identifiers. Malformed IDs cannot exist, so
// they are reported as not found.
func UUIDParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value, ok := PathParam(w, r, name, label)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		httputil.RespondProblem(w, http.StatusNotFound, label+" not found", CodeNotFound)
		return "", false
	}
	return value, true
}
