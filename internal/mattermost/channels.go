// ABOUTME: Channel resource methods: lookup, creation, membership
// ABOUTME: Join and leave act as the session's user, resolved through the acting-user cache

package mattermost

import (
	"context"

	"github.com/mattermost/mattermost/server/public/model"
)

// CreateChannelRequest is the body of POST /channels.
type CreateChannelRequest struct {
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Purpose     string `json:"purpose"`
	Header      string `json:"header"`
}

// GetChannels lists public channels of a team.
func (c *Client) GetChannels(ctx context.Context, teamID string, page, perPage int) ([]*Channel, error) {
	return decode[[]*Channel](c.Get(ctx, "/teams/"+seg(teamID)+"/channels", pageQuery(page, perPage)))
}

func (c *Client) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	return decode[*Channel](c.Get(ctx, "/channels/"+seg(channelID), nil))
}

func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (*Channel, error) {
	return decode[*Channel](c.Get(ctx, "/teams/"+seg(teamID)+"/channels/name/"+seg(name), nil))
}

// CreateChannel creates a public channel unless req.Type says otherwise.
func (c *Client) CreateChannel(ctx context.Context, req CreateChannelRequest) (*Channel, error) {
	if req.Type == "" {
		req.Type = string(model.ChannelTypeOpen)
	}
	return decode[*Channel](c.Post(ctx, "/channels", req))
}

// CreateDirectChannel returns the DM channel between two users, creating it if needed.
func (c *Client) CreateDirectChannel(ctx context.Context, userID, otherUserID string) (*Channel, error) {
	return decode[*Channel](c.Post(ctx, "/channels/direct", []string{userID, otherUserID}))
}

// JoinChannel adds the acting user to a channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) (*ChannelMember, error) {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return c.AddUserToChannel(ctx, channelID, userID)
}

// LeaveChannel removes the acting user from a channel.
func (c *Client) LeaveChannel(ctx context.Context, channelID string) error {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return err
	}
	_, err = c.Delete(ctx, "/channels/"+seg(channelID)+"/members/"+seg(userID))
	return err
}

func (c *Client) GetChannelMembers(ctx context.Context, channelID string, page, perPage int) ([]*ChannelMember, error) {
	return decode[[]*ChannelMember](c.Get(ctx, "/channels/"+seg(channelID)+"/members", pageQuery(page, perPage)))
}

func (c *Client) AddUserToChannel(ctx context.Context, channelID, userID string) (*ChannelMember, error) {
	body := map[string]string{"user_id": userID}
	return decode[*ChannelMember](c.Post(ctx, "/channels/"+seg(channelID)+"/members", body))
}
