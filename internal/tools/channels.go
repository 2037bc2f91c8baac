// ABOUTME: Channel tools: listing, lookup, creation, membership and direct channels
// ABOUTME: leave_channel answers with a fixed message since the API returns no body

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type listChannelsArgs struct {
	TeamID  string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Page    int    `json:"page,omitempty" validate:"gte=0" jsonschema:"minimum=0,default=0" jsonschema_description:"Page number (0-indexed)"`
	PerPage *int   `json:"per_page,omitempty" validate:"omitempty,gte=1,lte=200" jsonschema:"minimum=1,maximum=200,default=60" jsonschema_description:"Results per page"`
}

type channelArgs struct {
	ChannelID string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

type channelByNameArgs struct {
	TeamID      string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	ChannelName string `json:"channel_name" validate:"required,min=2,max=64,channelname" jsonschema:"minLength=2,maxLength=64,pattern=^[a-z0-9][a-z0-9_-]*$" jsonschema_description:"Channel name (lowercase, no spaces)"`
}

type createChannelArgs struct {
	TeamID      string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Name        string `json:"name" validate:"required,min=2,max=64,channelname" jsonschema:"minLength=2,maxLength=64,pattern=^[a-z0-9][a-z0-9_-]*$" jsonschema_description:"Channel name (lowercase, no spaces)"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=64" jsonschema:"minLength=1,maxLength=64" jsonschema_description:"Human-readable channel name"`
	ChannelType string `json:"channel_type,omitempty" validate:"omitempty,channeltype" jsonschema:"enum=O,enum=P,enum=D,enum=G,default=O" jsonschema_description:"Channel type: O=public, P=private, D=direct message, G=group message"`
	Purpose     string `json:"purpose,omitempty" validate:"max=250" jsonschema:"maxLength=250" jsonschema_description:"Channel purpose"`
	Header      string `json:"header,omitempty" validate:"max=1024" jsonschema:"maxLength=1024" jsonschema_description:"Channel header"`
}

type channelMembersArgs struct {
	ChannelID string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Page      int    `json:"page,omitempty" validate:"gte=0" jsonschema:"minimum=0,default=0" jsonschema_description:"Page number (0-indexed)"`
	PerPage   *int   `json:"per_page,omitempty" validate:"omitempty,gte=1,lte=200" jsonschema:"minimum=1,maximum=200,default=60" jsonschema_description:"Results per page"`
}

type addUserToChannelArgs struct {
	ChannelID string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	UserID    string `json:"user_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character user identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

type directChannelArgs struct {
	UserID1 string `json:"user_id_1" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character user identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	UserID2 string `json:"user_id_2" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character user identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

// perPage applies the default page size when the caller sent none.
func perPage(p *int) int {
	if p == nil {
		return mattermost.DefaultPerPage
	}
	return *p
}

// ChannelsPack returns the channel tools.
func ChannelsPack() *Pack {
	return &Pack{
		ID: "channels",
		Tools: []*Tool{
			newTool("list_channels", CapabilityRead, readOnly(), []string{tagChannel},
				"List public and private channels in a team.\n\n"+
					"Returns channels that the authenticated user has access to.\n"+
					"Use this to discover available channels for posting messages.",
				func(ctx context.Context, c *mattermost.Client, a listChannelsArgs) (any, error) {
					return c.GetChannels(ctx, a.TeamID, a.Page, perPage(a.PerPage))
				}),
			newTool("get_channel", CapabilityRead, readOnly(), []string{tagChannel},
				"Get detailed information about a specific channel.\n\n"+
					"Returns channel metadata including name, purpose, header, and member count.\n"+
					"Use when you have the channel ID.\n"+
					"For lookup by channel name, use get_channel_by_name instead.",
				func(ctx context.Context, c *mattermost.Client, a channelArgs) (any, error) {
					return c.GetChannel(ctx, a.ChannelID)
				}),
			newTool("get_channel_by_name", CapabilityRead, readOnly(), []string{tagChannel},
				"Get a channel by its name within a team.\n\n"+
					"Returns channel metadata including name, purpose, header, and member count.\n"+
					"Use when you know the channel name but not the ID.\n"+
					"For lookup by ID, use get_channel instead.",
				func(ctx context.Context, c *mattermost.Client, a channelByNameArgs) (any, error) {
					return c.GetChannelByName(ctx, a.TeamID, a.ChannelName)
				}),
			newTool("create_channel", CapabilityCreate, additive(), []string{tagChannel},
				"Create a new channel in a team.\n\n"+
					"Creates either a public (O) or private (P) channel.\n"+
					"The authenticated user becomes the channel admin.\n"+
					"Each call creates a new channel; use get_channel_by_name to check if it exists.",
				func(ctx context.Context, c *mattermost.Client, a createChannelArgs) (any, error) {
					return c.CreateChannel(ctx, mattermost.CreateChannelRequest{
						TeamID:      a.TeamID,
						Name:        a.Name,
						DisplayName: a.DisplayName,
						Type:        a.ChannelType,
						Purpose:     a.Purpose,
						Header:      a.Header,
					})
				}),
			newTool("join_channel", CapabilityWrite, idempotent(), []string{tagChannel},
				"Join a public channel.\n\n"+
					"Adds the authenticated user to the channel.\n"+
					"Cannot be used to join private channels.\n"+
					"Joining a channel you're already in has no additional effect.",
				func(ctx context.Context, c *mattermost.Client, a channelArgs) (any, error) {
					return c.JoinChannel(ctx, a.ChannelID)
				}),
			newTool("leave_channel", CapabilityWrite, idempotent(), []string{tagChannel},
				"Leave a channel.\n\n"+
					"Removes the authenticated user from the channel.\n"+
					"Cannot leave Town Square or other default channels.\n"+
					"Can rejoin public channels later with join_channel.",
				func(ctx context.Context, c *mattermost.Client, a channelArgs) (any, error) {
					if err := c.LeaveChannel(ctx, a.ChannelID); err != nil {
						return nil, err
					}
					return msgChannelLeft, nil
				}),
			newTool("get_channel_members", CapabilityRead, readOnly(), []string{tagChannel, tagUser},
				"Get members of a channel.\n\n"+
					"Returns list of users who are members of the channel.\n"+
					"Use to see who can receive messages in a channel.",
				func(ctx context.Context, c *mattermost.Client, a channelMembersArgs) (any, error) {
					return c.GetChannelMembers(ctx, a.ChannelID, a.Page, perPage(a.PerPage))
				}),
			newTool("add_user_to_channel", CapabilityWrite, idempotent(), []string{tagChannel, tagUser},
				"Add a user to a channel.\n\n"+
					"Requires permission to manage channel members.\n"+
					"Adding a user who is already in the channel has no additional effect.",
				func(ctx context.Context, c *mattermost.Client, a addUserToChannelArgs) (any, error) {
					return c.AddUserToChannel(ctx, a.ChannelID, a.UserID)
				}),
			newTool("create_direct_channel", CapabilityCreate, idempotent(), []string{tagChannel},
				"Create a direct message channel between two users.\n\n"+
					"Returns an existing DM channel if one already exists between the users.\n"+
					"Use this to get a channel ID for sending private messages.\n"+
					"Then use post_message with the returned channel_id to send messages.",
				func(ctx context.Context, c *mattermost.Client, a directChannelArgs) (any, error) {
					return c.CreateDirectChannel(ctx, a.UserID1, a.UserID2)
				}),
		},
	}
}
