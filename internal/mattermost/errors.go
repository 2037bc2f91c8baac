// ABOUTME: Error taxonomy for Mattermost API failures and local validation
// ABOUTME: Maps HTTP status codes to error kinds consumed by the retry and tool layers

package mattermost

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindNotFound       ErrorKind = "not_found"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindClient         ErrorKind = "client"
)

// ErrNotInitialized is returned when a request is made outside an open session.
var ErrNotInitialized = errors.New("mattermost client not initialized: call Connect before making requests")

// ErrValidation matches every local validation failure via errors.Is.
var ErrValidation = errors.New("validation failed")

// APIError is a non-success response from the Mattermost API.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	// ErrorID is the server's error identifier (e.g. "app.channel.missing"), if any.
	ErrorID string
	// RetryAfter is set on rate-limit errors when the server sent a usable Retry-After header.
	RetryAfter *time.Duration
}

func (e *APIError) Error() string {
	parts := []string{e.Message}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.ErrorID != "" {
		parts = append(parts, "error_id="+e.ErrorID)
	}
	return strings.Join(parts, " ")
}

// Retryable reports whether the retry policy may repeat the call that produced e.
func (e *APIError) Retryable() bool {
	return e.Kind == KindRateLimit || e.StatusCode >= http.StatusInternalServerError
}

func newAuthenticationError() *APIError {
	return &APIError{Kind: KindAuthentication, StatusCode: http.StatusUnauthorized, Message: "Authentication failed"}
}

func newNotFoundError(message, errorID string) *APIError {
	if message == "" {
		message = "Resource not found"
	}
	return &APIError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: message, ErrorID: errorID}
}

func newRateLimitError(retryAfter *time.Duration) *APIError {
	return &APIError{Kind: KindRateLimit, StatusCode: http.StatusTooManyRequests, Message: "Rate limit exceeded", RetryAfter: retryAfter}
}

// KindOf returns the kind of the APIError wrapped in err, or "" if there is none.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsRetryable reports whether err is a rate-limit error or a 5xx server error.
// Transport failures and context errors are not retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// ValidationError is a local precondition failure detected before any request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// File validation reasons.
const (
	ReasonUnresolvable = "cannot resolve path"
	ReasonSymlink      = "symbolic links are not allowed"
	ReasonNotRegular   = "path is not a file"
)

// FileValidationError rejects a local upload path. Path is the caller's original argument.
type FileValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FileValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Reason, e.Path, e.Err)
	}
	return e.Reason + ": " + e.Path
}

func (e *FileValidationError) Unwrap() error { return e.Err }

func (e *FileValidationError) Is(target error) bool { return target == ErrValidation }
