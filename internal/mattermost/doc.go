// Package mattermost is a typed client for the Mattermost REST API v4.
//
// # Sessions
//
// A Client is bound to one identity: the token given with WithToken, or the
// configured static token. Requests are accepted only between Connect and
// Close; outside that window they fail with ErrNotInitialized. Session wraps
// the connect/run/close sequence for one unit of work.
//
//	err := mattermost.Session(ctx, cfg.Mattermost, func(ctx context.Context, c *mattermost.Client) error {
//	    me, err := c.GetMe(ctx)
//	    ...
//	})
//
// # Errors
//
// Failed responses become *APIError with a Kind:
//
//	401        KindAuthentication  never retried
//	404        KindNotFound        never retried
//	429        KindRateLimit       retried, honours Retry-After
//	5xx        KindServer          retried
//	other 4xx  KindClient          never retried
//
// Local precondition failures (*ValidationError, *FileValidationError) match
// ErrValidation and are returned before any request is made.
//
// # Retries
//
// Every request, uploads included, runs through Retry with the settings'
// max_retries. Waits grow 1s, 2s, 4s, 8s and then stay at 10s unless the
// server sent Retry-After. There is no overall deadline across attempts;
// cancel the context to stop early.
package mattermost
