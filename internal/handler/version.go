package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	models "prdtool/internal/domain/models/docsystem"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	"prdtool/internal/httputil"
)

// VersionHandler handles PRD version history requests
type VersionHandler struct {
	versionService docsysSvc.VersionService
	logger         *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versionService docsysSvc.VersionService, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
		logger:         logger,
	}
}

// snapshotRequest is the optional body of a snapshot call
type snapshotRequest struct {
	ChangeSummary *string `json:"change_summary"`
}

// ListVersions returns versions newest first
// GET /api/prds/{prdId}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}

	versions, err := h.versionService.ListVersions(r.Context(), prdID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	summaries := make([]models.VersionSummary, len(versions))
	for i := range versions {
		summaries[i] = versions[i].Summary()
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

// GetVersion returns one version with its content
// GET /api/prds/{prdId}/versions/{versionId}
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}
	versionID, ok := UUIDParam(w, r, "versionId", "Version")
	if !ok {
		return
	}

	version, err := h.versionService.GetVersion(r.Context(), prdID, httputil.GetUserID(r), versionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

// CreateSnapshot saves the live content as a new version
// POST /api/prds/{prdId}/versions
func (h *VersionHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}

	// The body is optional
	var req snapshotRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondProblem(w, http.StatusBadRequest, "Invalid request body", CodeValidation)
		return
	}

	version, err := h.versionService.Snapshot(r.Context(), prdID, httputil.GetUserID(r), req.ChangeSummary)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// RestoreVersion makes a past version live again
// POST /api/prds/{prdId}/versions/{versionId}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}
	versionID, ok := UUIDParam(w, r, "versionId", "Version")
	if !ok {
		return
	}

	version, err := h.versionService.Restore(r.Context(), prdID, httputil.GetUserID(r), versionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Version restored",
		"version": version,
	})
}

// CompareVersions returns two versions side by side
// GET /api/prds/{prdId}/versions/compare?from_version=X&to_version=Y
func (h *VersionHandler) CompareVersions(w http.ResponseWriter, r *http.Request) {
	prdID, ok := UUIDParam(w, r, "prdId", "PRD")
	if !ok {
		return
	}

	from := r.URL.Query().Get("from_version")
	to := r.URL.Query().Get("to_version")
	if _, err := uuid.Parse(from); err != nil {
		httputil.RespondProblem(w, http.StatusBadRequest, "from_version must be a UUID", CodeValidation)
		return
	}
	if _, err := uuid.Parse(to); err != nil {
		httputil.RespondProblem(w, http.StatusBadRequest, "to_version must be a UUID", CodeValidation)
		return
	}

	comparison, err := h.versionService.Compare(r.Context(), prdID, httputil.GetUserID(r), from, to)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, comparison)
}
