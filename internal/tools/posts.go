// ABOUTME: Post tools: reactions, pins and threads
// ABOUTME: Pin and unpin refetch the post so callers see the new is_pinned state

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type reactionArgs struct {
	PostID    string `json:"post_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character post/message identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	EmojiName string `json:"emoji_name" validate:"required,min=1,max=64,emoji" jsonschema:"minLength=1,maxLength=64,pattern=^[a-zA-Z0-9_+-]+$" jsonschema_description:"Emoji name without colons (e.g., 'thumbsup', 'smile')"`
}

// PostsPack returns the reaction, pin and thread tools.
func PostsPack() *Pack {
	return &Pack{
		ID: "posts",
		Tools: []*Tool{
			newTool("add_reaction", CapabilityWrite, idempotent(), []string{tagPost},
				"Add an emoji reaction to a message.\n\n"+
					"Adds a reaction from the authenticated user.\n"+
					"Common emojis: thumbsup, thumbsdown, smile, heart, eyes.\n"+
					"Adding the same reaction twice has no additional effect.",
				func(ctx context.Context, c *mattermost.Client, a reactionArgs) (any, error) {
					return c.AddReaction(ctx, a.PostID, a.EmojiName)
				}),
			newTool("remove_reaction", CapabilityWrite, idempotent(), []string{tagPost},
				"Remove your emoji reaction from a message.\n\n"+
					"Removes a reaction previously added by the authenticated user.\n"+
					"Removing a non-existent reaction has no effect.",
				func(ctx context.Context, c *mattermost.Client, a reactionArgs) (any, error) {
					if err := c.RemoveReaction(ctx, a.PostID, a.EmojiName); err != nil {
						return nil, err
					}
					return msgReactionRemoved, nil
				}),
			newTool("get_reactions", CapabilityRead, readOnly(), []string{tagPost},
				"Get all reactions on a message.\n\n"+
					"Returns list of reactions with emoji names and user IDs.\n"+
					"Use to see who reacted to a message and with what emoji.",
				func(ctx context.Context, c *mattermost.Client, a postArgs) (any, error) {
					return c.GetReactions(ctx, a.PostID)
				}),
			newTool("pin_message", CapabilityWrite, idempotent(), []string{tagPost},
				"Pin a message in a channel.\n\n"+
					"Pinned messages appear in the channel's pinned posts section.\n"+
					"Pinning an already pinned message has no additional effect.",
				func(ctx context.Context, c *mattermost.Client, a postArgs) (any, error) {
					if err := c.PinPost(ctx, a.PostID); err != nil {
						return nil, err
					}
					return c.GetPost(ctx, a.PostID)
				}),
			newTool("unpin_message", CapabilityWrite, idempotent(), []string{tagPost},
				"Unpin a message from a channel.\n\n"+
					"Removes the message from the channel's pinned posts.\n"+
					"Unpinning a non-pinned message has no effect.",
				func(ctx context.Context, c *mattermost.Client, a postArgs) (any, error) {
					if err := c.UnpinPost(ctx, a.PostID); err != nil {
						return nil, err
					}
					return c.GetPost(ctx, a.PostID)
				}),
			newTool("get_thread", CapabilityRead, readOnly(), []string{tagPost, tagMessage},
				"Get all messages in a thread.\n\n"+
					"Returns the root post and all replies in chronological order.\n"+
					"Use to read full conversation context before replying.",
				func(ctx context.Context, c *mattermost.Client, a postArgs) (any, error) {
					return c.GetThread(ctx, a.PostID)
				}),
		},
	}
}
