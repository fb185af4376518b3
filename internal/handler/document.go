package handler

import (
	"log/slog"
	"net/http"
	"time"

	docsysSvc "prdtool/internal/domain/services/docsystem"
	"prdtool/internal/httputil"
)

// DocumentHandler handles PRD metadata and content requests
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// CreateDocument creates a new PRD
// POST /api/prds
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondProblem(w, http.StatusBadRequest, "Invalid request body", CodeValidation)
		return
	}
	req.UserID = httputil.GetUserID(r)

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves PRD metadata
// GET /api/prds/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := UUIDParam(w, r, "id", "PRD")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetContent returns the PRD body
// GET /api/prds/{id}/content
func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := UUIDParam(w, r, "id", "PRD")
	if !ok {
		return
	}

	content, err := h.docService.GetContent(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// UpdateContent replaces the PRD body
// PUT /api/prds/{id}/content
func (h *DocumentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := UUIDParam(w, r, "id", "PRD")
	if !ok {
		return
	}

	var req docsysSvc.UpdateContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondProblem(w, http.StatusBadRequest, "Invalid request body", CodeValidation)
		return
	}

	result, err := h.docService.UpdateContent(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// HealthCheck is a simple health check endpoint
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
