package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals data before touching the response, so an encoding
// failure becomes a clean 500 instead of a truncated body.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Problem is an RFC 7807 body. Code is a stable machine-readable error
// identifier clients switch on (NOT_FOUND, NO_CHANGES, ...).
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// problemTypes maps statuses to the RFC section describing them
var problemTypes = map[int]string{
	http.StatusBadRequest:            "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1",
	http.StatusUnauthorized:          "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1",
	http.StatusNotFound:              "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4",
	http.StatusConflict:              "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8",
	http.StatusRequestEntityTooLarge: "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.11",
	http.StatusInternalServerError:   "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1",
}

// RespondError writes a problem response without a code
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, status, detail, "")
}

// RespondProblem writes an RFC 7807 error carrying a machine-readable code
func RespondProblem(w http.ResponseWriter, status int, detail, code string) {
	problemType, ok := problemTypes[status]
	if !ok {
		problemType = "about:blank"
	}

	// A struct of strings and an int cannot fail to marshal
	payload, _ := json.Marshal(Problem{
		Type:   problemType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	})

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
