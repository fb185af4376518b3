package handler

import "net/http"

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Documents *DocumentHandler
	Chat      *ChatHandler
	Versions  *VersionHandler
}

// RegisterRoutes mounts the API on mux
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", HealthCheck)

	// PRD routes
	mux.HandleFunc("POST /api/prds", h.Documents.CreateDocument)
	mux.HandleFunc("GET /api/prds/{id}", h.Documents.GetDocument)
	mux.HandleFunc("GET /api/prds/{id}/content", h.Documents.GetContent)
	mux.HandleFunc("PUT /api/prds/{id}/content", h.Documents.UpdateContent)

	// Chat routes
	mux.HandleFunc("GET /api/prds/{prdId}/messages", h.Chat.ListMessages)
	mux.HandleFunc("POST /api/prds/{prdId}/messages", h.Chat.SendMessage)
	mux.HandleFunc("POST /api/prds/{prdId}/messages/{messageId}/apply", h.Chat.ApplyUpdate)

	// Version routes ("compare" is more specific than {versionId} and wins)
	mux.HandleFunc("GET /api/prds/{prdId}/versions", h.Versions.ListVersions)
	mux.HandleFunc("POST /api/prds/{prdId}/versions", h.Versions.CreateSnapshot)
	mux.HandleFunc("GET /api/prds/{prdId}/versions/compare", h.Versions.CompareVersions)
	mux.HandleFunc("GET /api/prds/{prdId}/versions/{versionId}", h.Versions.GetVersion)
	mux.HandleFunc("POST /api/prds/{prdId}/versions/{versionId}/restore", h.Versions.RestoreVersion)
}
