// Package sse writes Server-Sent Events in the `data: <JSON>\n\n` framing
// used by the chat endpoint.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Writer serializes events onto one response. Headers are committed on the
// first write, so a handler can still fall back to a plain error response
// while nothing has been sent.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewWriter wraps w. It fails when w does not support flushing.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// Started reports whether any bytes have been written.
func (s *Writer) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Send writes one `data:` event holding v as JSON and flushes it.
func (s *Writer) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive writes an SSE comment, which clients ignore.
func (s *Writer) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// start commits the event-stream headers once. Callers hold mu.
func (s *Writer) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}
