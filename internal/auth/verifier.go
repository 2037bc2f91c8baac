// ABOUTME: Bearer token verification against the Mattermost /users/me endpoint
// ABOUTME: Accepted tokens are cached briefly and concurrent checks of one token share a request

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/2389/mcp-server-mattermost/internal/cache"
	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

const (
	DefaultCacheTTL  = 60 * time.Second
	DefaultCacheSize = 512
)

// ErrInvalidToken is returned for every rejected token, whatever the cause.
var ErrInvalidToken = errors.New("invalid token")

// MattermostVerifier accepts a token when Mattermost answers GET /users/me with it.
type MattermostVerifier struct {
	settings   config.Settings
	logger     *slog.Logger
	clientOpts []mattermost.Option
	cacheOpts  []cache.Option
	ttl        time.Duration
	size       int

	accepted *cache.Cache[string]
	flight   singleflight.Group
}

// VerifierOption configures a MattermostVerifier.
type VerifierOption func(*MattermostVerifier)

// WithVerifierLogger sets the logger.
func WithVerifierLogger(logger *slog.Logger) VerifierOption {
	return func(v *MattermostVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClientOptions passes extra options to each verification client.
func WithClientOptions(opts ...mattermost.Option) VerifierOption {
	return func(v *MattermostVerifier) {
		v.clientOpts = append(v.clientOpts, opts...)
	}
}

// WithCache overrides the cache lifetime, capacity and options.
func WithCache(ttl time.Duration, size int, opts ...cache.Option) VerifierOption {
	return func(v *MattermostVerifier) {
		v.ttl = ttl
		v.size = size
		v.cacheOpts = opts
	}
}

// NewMattermostVerifier creates a verifier. Verification requests are never retried.
func NewMattermostVerifier(settings config.Settings, opts ...VerifierOption) *MattermostVerifier {
	settings.MaxRetries = 0
	v := &MattermostVerifier{
		settings: settings,
		logger:   slog.Default(),
		ttl:      DefaultCacheTTL,
		size:     DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("component", "auth")
	v.accepted = cache.New[string](v.ttl, v.size, v.cacheOpts...)
	return v
}

// cacheKey avoids keeping raw tokens as map keys.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify returns the id of the user owning token. Any failure, including
// network errors, yields ErrInvalidToken.
func (v *MattermostVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	key := cacheKey(token)
	if userID, ok := v.accepted.Get(key); ok {
		return userID, nil
	}

	// The shared lookup must not die with whichever caller started it.
	ch := v.flight.DoChan(key, func() (any, error) {
		if userID, ok := v.accepted.Get(key); ok {
			return userID, nil
		}
		userID, err := v.lookup(context.WithoutCancel(ctx), token)
		if err != nil {
			return "", err
		}
		v.accepted.Set(key, userID)
		return userID, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (v *MattermostVerifier) lookup(ctx context.Context, token string) (string, error) {
	opts := append([]mattermost.Option{
		mattermost.WithToken(token),
		mattermost.WithLogger(v.logger),
	}, v.clientOpts...)

	var userID string
	err := mattermost.Session(ctx, v.settings, func(ctx context.Context, c *mattermost.Client) error {
		me, err := c.GetMe(ctx)
		if err != nil {
			return err
		}
		userID = me.ID
		return nil
	}, opts...)
	if err != nil {
		var apiErr *mattermost.APIError
		if errors.As(err, &apiErr) {
			v.logger.Debug("mattermost rejected token", "status_code", apiErr.StatusCode)
		} else {
			v.logger.Warn("token verification failed", "error", err)
		}
		return "", ErrInvalidToken
	}
	if userID == "" {
		v.logger.Warn("token verification returned no user id")
		return "", ErrInvalidToken
	}
	v.logger.Debug("token verified", "user_id", userID)
	return userID, nil
}

// Close releases the cache. It is safe to call without prior use and more than once.
func (v *MattermostVerifier) Close() {
	v.accepted.Close()
}
