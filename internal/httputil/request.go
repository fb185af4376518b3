package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxBodyBytes leaves room for a full 2 MiB document plus JSON escaping.
const maxBodyBytes = 8 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// The body is capped at maxBodyBytes.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// WantsEventStream reports whether the client asked for Server-Sent Events
func WantsEventStream(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
			if strings.EqualFold(strings.TrimSpace(mediaType), "text/event-stream") {
				return true
			}
		}
	}
	return false
}
