// Package auth authenticates HTTP clients of the MCP endpoint with their own
// Mattermost tokens.
//
// # Client Tokens
//
// With mattermost.allow_http_client_tokens enabled, an MCP client may send
//
//	Authorization: Bearer <mattermost personal access token>
//
// The token is checked by calling GET /api/v4/users/me with it. Accepted
// tokens are cached for 60 seconds (512 entries); rejected ones are not
// cached, and a failure of any kind rejects the token.
//
// A verified token travels in the request context:
//
//	id := auth.FromContext(ctx) // nil when the static token applies
//
// The tool layer opens its Mattermost session with id.Token, so every call
// acts as the client's own user.
//
// # Static Token Fallback
//
// When a static mattermost.token is also configured, requests without an
// Authorization header are served with it. A header that is present must
// still carry a valid token.
package auth
