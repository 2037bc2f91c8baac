// ABOUTME: Translates tool failures into MCP tool-error results
// ABOUTME: Callers see a readable message; the error kind is kept for logs, metrics and audit

package tools

import (
	"errors"
	"fmt"
	"math"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

// Error kinds beyond the mattermost.ErrorKind values.
const (
	kindValidation     = "validation"
	kindNotInitialized = "not_initialized"
	kindInternal       = "internal"
)

// errorKind names the class of err for logs and audit rows.
func errorKind(err error) string {
	if kind := mattermost.KindOf(err); kind != "" {
		return string(kind)
	}
	switch {
	case errors.Is(err, mattermost.ErrValidation):
		return kindValidation
	case errors.Is(err, mattermost.ErrNotInitialized):
		return kindNotInitialized
	default:
		return kindInternal
	}
}

// userMessage renders err as the text returned to the MCP client.
func userMessage(err error) string {
	var apiErr *mattermost.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case mattermost.KindAuthentication:
			return "Authentication failed: the Mattermost token is invalid or expired."
		case mattermost.KindNotFound:
			return "Not found: " + apiErr.Message
		case mattermost.KindRateLimit:
			if apiErr.RetryAfter != nil {
				secs := int(math.Ceil(apiErr.RetryAfter.Seconds()))
				return fmt.Sprintf("Rate limited by Mattermost. Retry after %d seconds.", secs)
			}
			return "Rate limited by Mattermost. Retry later."
		default:
			return "Mattermost API error: " + apiErr.Error()
		}
	}
	if errors.Is(err, mattermost.ErrValidation) {
		return err.Error()
	}
	return "Internal error while calling Mattermost. Check the server logs for details."
}
