// ABOUTME: Team resource methods and shared pagination helpers
// ABOUTME: Pagination defaults to page 0 / 60 per page and caps per_page at 200

package mattermost

import (
	"context"
	"net/url"
	"strconv"

	"github.com/2389/mcp-server-mattermost/internal/config"
)

// Pagination defaults.
const (
	DefaultPerPage = 60
	MaxPerPage     = 200
)

// pageQuery builds page/per_page parameters. Out-of-range values are clamped.
func pageQuery(page, perPage int) url.Values {
	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
}

// seg escapes a value for use as one path segment.
func seg(s string) string {
	return url.PathEscape(s)
}

// GetTeams returns the teams the acting user belongs to.
func (c *Client) GetTeams(ctx context.Context) ([]*Team, error) {
	return decode[[]*Team](c.Get(ctx, "/users/me/teams", nil))
}

func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	return decode[*Team](c.Get(ctx, "/teams/"+seg(teamID), nil))
}

func (c *Client) GetTeamMembers(ctx context.Context, teamID string, page, perPage int) ([]*TeamMember, error) {
	return decode[[]*TeamMember](c.Get(ctx, "/teams/"+seg(teamID)+"/members", pageQuery(page, perPage)))
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, "/system/ping", nil)
	return err
}

// Ping checks reachability with a short-lived session. It authenticates with
// the static token when one is configured and sends no credentials otherwise.
func Ping(ctx context.Context, settings config.Settings, opts ...Option) error {
	c, err := New(settings, opts...)
	if err != nil {
		return err
	}
	c.anonymous = true
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()
	return c.Ping(ctx)
}
