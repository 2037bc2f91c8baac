// ABOUTME: HTTP middleware for bearer token authentication on the MCP endpoint
// ABOUTME: Extracts the token from the Authorization header, verifies it, and adds the identity to context

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier checks a bearer token and returns the user it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="mattermost"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// MiddlewareConfig controls how HTTPAuthMiddleware treats requests.
type MiddlewareConfig struct {
	// AllowClientTokens enables per-request tokens. When false the middleware
	// passes every request through and the static token is used.
	AllowClientTokens bool
	// HasStaticToken lets requests without an Authorization header fall back
	// to the static token.
	HasStaticToken bool
	Logger         *slog.Logger
}

// HTTPAuthMiddleware creates an HTTP middleware that verifies client bearer
// tokens against Mattermost. A token that is present must verify, even when a
// static token could have served the request.
func HTTPAuthMiddleware(verifier TokenVerifier, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if !cfg.AllowClientTokens {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && cfg.HasStaticToken {
				next.ServeHTTP(w, r)
				return
			}

			token, errMsg := extractBearerToken(header)
			if errMsg != "" {
				writeUnauthorized(w, errMsg)
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("bearer token rejected", "remote_addr", r.RemoteAddr)
				writeUnauthorized(w, "invalid token")
				return
			}

			id := &Identity{Token: token, UserID: userID}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
