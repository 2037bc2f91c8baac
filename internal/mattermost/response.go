// ABOUTME: Response interpretation for Mattermost API calls
// ABOUTME: Maps status codes to typed errors and parses error bodies and Retry-After headers

package mattermost

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// handleResponse turns one HTTP response into parsed JSON or a typed error.
// An empty success body yields a nil message.
func handleResponse(status int, header http.Header, body []byte, now time.Time) (json.RawMessage, error) {
	switch {
	case status == http.StatusUnauthorized:
		return nil, newAuthenticationError()
	case status == http.StatusNotFound:
		message, errorID := parseErrorBody(body)
		return nil, newNotFoundError(message, errorID)
	case status == http.StatusTooManyRequests:
		var retryAfter *time.Duration
		if d, ok := parseRetryAfter(header.Get("Retry-After"), now); ok {
			retryAfter = &d
		}
		return nil, newRateLimitError(retryAfter)
	case status >= http.StatusInternalServerError:
		message, errorID := parseErrorBody(body)
		return nil, &APIError{Kind: KindServer, StatusCode: status, Message: "Server error: " + message, ErrorID: errorID}
	case status >= http.StatusBadRequest:
		message, errorID := parseErrorBody(body)
		return nil, &APIError{Kind: KindClient, StatusCode: status, Message: "Client error: " + message, ErrorID: errorID}
	}

	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, errors.Errorf("decoding response: invalid JSON body (status %d)", status)
	}
	return json.RawMessage(body), nil
}

// parseErrorBody extracts "message" and "id" from a JSON error body.
// Anything that is not a JSON object falls back to the raw text with no id.
func parseErrorBody(body []byte) (message, errorID string) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return string(body), ""
	}

	message = string(body)
	if m, ok := payload["message"]; ok {
		message = stringify(m)
	}
	if id, ok := payload["id"]; ok && id != nil {
		errorID = stringify(id)
	}
	return message, errorID
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// parseRetryAfter accepts integer seconds or an HTTP-date. Dates in the past
// and negative values yield zero; anything else is reported as unknown.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	wait := at.Sub(now)
	if wait < 0 {
		return 0, true
	}
	return wait.Truncate(time.Second), true
}
