// ABOUTME: User and status resource methods
// ABOUTME: GetMe also backs the per-session acting-user cache

package mattermost

import (
	"context"
)

type searchUsersRequest struct {
	Term   string `json:"term"`
	TeamID string `json:"team_id,omitempty"`
}

// GetMe returns the user the session's token belongs to.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return decode[*User](c.Get(ctx, "/users/me", nil))
}

func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	return decode[*User](c.Get(ctx, "/users/"+seg(userID), nil))
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return decode[*User](c.Get(ctx, "/users/username/"+seg(username), nil))
}

// SearchUsers matches term against username, nickname and email, optionally
// limited to one team.
func (c *Client) SearchUsers(ctx context.Context, term, teamID string) ([]*User, error) {
	return decode[[]*User](c.Post(ctx, "/users/search", searchUsersRequest{Term: term, TeamID: teamID}))
}

func (c *Client) GetUserStatus(ctx context.Context, userID string) (*UserStatus, error) {
	return decode[*UserStatus](c.Get(ctx, "/users/"+seg(userID)+"/status", nil))
}
