// ABOUTME: Tests for the Mattermost error taxonomy
// ABOUTME: Covers error rendering, kind lookup through wrapping, and retryability

package mattermost

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "message only",
			err:  &APIError{Message: "boom"},
			want: "boom",
		},
		{
			name: "with status and id",
			err:  &APIError{Kind: KindNotFound, StatusCode: 404, Message: "Channel not found", ErrorID: "app.channel.missing"},
			want: "Channel not found status=404 error_id=app.channel.missing",
		},
		{
			name: "authentication",
			err:  newAuthenticationError(),
			want: "Authentication failed status=401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewNotFoundError_DefaultMessage(t *testing.T) {
	err := newNotFoundError("", "")
	assert.Equal(t, "Resource not found", err.Message)
	assert.Equal(t, KindNotFound, err.Kind)
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Wrap(newRateLimitError(nil), "GET /users/me")
	assert.Equal(t, KindRateLimit, KindOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("outer: %w", newNotFoundError("x", ""))))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestIsRetryable(t *testing.T) {
	d := 3 * time.Second
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", newRateLimitError(&d), true},
		{"rate limit without retry-after", newRateLimitError(nil), true},
		{"500", &APIError{Kind: KindServer, StatusCode: 500}, true},
		{"503 wrapped", errors.Wrap(&APIError{Kind: KindServer, StatusCode: 503}, "ctx"), true},
		{"401", newAuthenticationError(), false},
		{"404", newNotFoundError("", ""), false},
		{"400", &APIError{Kind: KindClient, StatusCode: 400}, false},
		{"403", &APIError{Kind: KindClient, StatusCode: 403}, false},
		{"transport", errors.New("connection refused"), false},
		{"validation", &ValidationError{Message: "bad"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestValidationErrors_MatchErrValidation(t *testing.T) {
	assert.ErrorIs(t, &ValidationError{Message: "bad"}, ErrValidation)

	fileErr := &FileValidationError{Path: "/tmp/x", Reason: ReasonUnresolvable, Err: os.ErrNotExist}
	assert.ErrorIs(t, fileErr, ErrValidation)
	assert.ErrorIs(t, fileErr, os.ErrNotExist)
	assert.Contains(t, fileErr.Error(), "cannot resolve path: /tmp/x")

	symlinkErr := &FileValidationError{Path: "/tmp/link", Reason: ReasonSymlink}
	assert.Equal(t, "symbolic links are not allowed: /tmp/link", symlinkErr.Error())
}
