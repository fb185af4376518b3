package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Is lets typed errors match their sentinels.
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage error")
	// ErrCompletion matches any *CompletionError.
	ErrCompletion = errors.New("completion error")

	// ErrNoDirective is returned when applying a turn that carries no
	// update suggestion.
	ErrNoDirective = errors.New("no update suggestion in this message")
	// ErrNoChanges is returned when a snapshot would duplicate the latest version.
	ErrNoChanges = errors.New("no changes to save")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (prd, version)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StorageError wraps failures of the document content store, including
// rejected identifiers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return "storage " + e.Op + " failed"
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
func (e *StorageError) StatusCode() int      { return http.StatusInternalServerError }

// CompletionError wraps any failure talking to the completion provider:
// missing credentials, transport errors, non-success statuses and
// malformed responses.
type CompletionError struct {
	Message string
	// Status is the provider's HTTP status when one was received, 0 otherwise.
	Status int
	Err    error
}

func (e *CompletionError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("completion: %s: %v", msg, e.Err)
	}
	return "completion: " + msg
}

func (e *CompletionError) Unwrap() error        { return e.Err }
func (e *CompletionError) Is(target error) bool { return target == ErrCompletion }
func (e *CompletionError) StatusCode() int      { return http.StatusInternalServerError }
