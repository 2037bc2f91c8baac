// ABOUTME: Message tools: posting, reading, searching, editing and deleting posts
// ABOUTME: Attachment arguments are validated here and converted to post props

package tools

import (
	"context"
	"strconv"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

type attachmentFieldArg struct {
	Title string `json:"title" validate:"required" jsonschema_description:"Field label/header"`
	Value any    `json:"value" validate:"required,scalar" jsonschema:"oneof_type=string;integer" jsonschema_description:"Field content (string or number)"`
	Short bool   `json:"short,omitempty" jsonschema_description:"Display inline with other short fields"`
}

type attachmentArg struct {
	ID         *int64               `json:"id,omitempty" jsonschema_description:"Attachment ID (auto-generated)"`
	Fallback   string               `json:"fallback,omitempty" jsonschema_description:"Plain-text summary for notifications"`
	Color      string               `json:"color,omitempty" validate:"omitempty,attachcolor" jsonschema_description:"Left border color: 'good', 'warning', 'danger', or #RRGGBB hex"`
	Pretext    string               `json:"pretext,omitempty" jsonschema_description:"Text above attachment"`
	Text       string               `json:"text,omitempty" jsonschema_description:"Main content (supports Markdown)"`
	AuthorName string               `json:"author_name,omitempty" validate:"required_with=AuthorLink" jsonschema_description:"Author display name"`
	AuthorLink string               `json:"author_link,omitempty" jsonschema_description:"Author profile URL (requires author_name)"`
	AuthorIcon string               `json:"author_icon,omitempty" jsonschema_description:"Author avatar URL"`
	Title      string               `json:"title,omitempty" validate:"required_with=TitleLink" jsonschema_description:"Attachment title"`
	TitleLink  string               `json:"title_link,omitempty" jsonschema_description:"Title hyperlink URL (requires title)"`
	Fields     []attachmentFieldArg `json:"fields,omitempty" validate:"omitempty,dive" jsonschema_description:"Structured data fields"`
	ImageURL   string               `json:"image_url,omitempty" jsonschema_description:"Main image URL"`
	ThumbURL   string               `json:"thumb_url,omitempty" jsonschema_description:"Thumbnail image URL (75x75)"`
	Footer     string               `json:"footer,omitempty" jsonschema_description:"Footer text (max 300 chars)"`
	FooterIcon string               `json:"footer_icon,omitempty" jsonschema_description:"Footer icon URL"`
	Ts         any                  `json:"ts,omitempty" validate:"omitempty,scalar" jsonschema:"oneof_type=string;integer" jsonschema_description:"Unix timestamp for footer"`
}

type postMessageArgs struct {
	ChannelID   string          `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Message     string          `json:"message" validate:"required,min=1,max=16383" jsonschema:"minLength=1,maxLength=16383" jsonschema_description:"Message content (supports Markdown)"`
	RootID      string          `json:"root_id,omitempty" validate:"omitempty,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"Root post ID for threading"`
	FileIDs     []string        `json:"file_ids,omitempty" validate:"omitempty,dive,mmid" jsonschema_description:"File IDs to attach (from upload_file)"`
	Attachments []attachmentArg `json:"attachments,omitempty" validate:"omitempty,dive" jsonschema_description:"Rich message attachments with colors, fields, images"`
}

type channelMessagesArgs struct {
	ChannelID string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Page      int    `json:"page,omitempty" validate:"gte=0" jsonschema:"minimum=0,default=0" jsonschema_description:"Page number (0-indexed)"`
	PerPage   *int   `json:"per_page,omitempty" validate:"omitempty,gte=1,lte=200" jsonschema:"minimum=1,maximum=200,default=60" jsonschema_description:"Results per page"`
}

type searchMessagesArgs struct {
	TeamID     string `json:"team_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character team identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Terms      string `json:"terms" validate:"required,min=1,max=512" jsonschema:"minLength=1,maxLength=512" jsonschema_description:"Search terms (Mattermost syntax)"`
	IsOrSearch bool   `json:"is_or_search,omitempty" jsonschema:"default=false" jsonschema_description:"Use OR instead of AND for multiple terms"`
}

type updateMessageArgs struct {
	PostID      string          `json:"post_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character post/message identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	Message     string          `json:"message" validate:"required,min=1,max=16383" jsonschema:"minLength=1,maxLength=16383" jsonschema_description:"New message content"`
	Attachments []attachmentArg `json:"attachments,omitempty" validate:"omitempty,dive" jsonschema_description:"Rich message attachments with colors, fields, images"`
}

type postArgs struct {
	PostID string `json:"post_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character post/message identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

// scalarString renders a string-or-number argument. JSON numbers arrive as float64.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func toAttachments(args []attachmentArg) []mattermost.Attachment {
	if len(args) == 0 {
		return nil
	}
	out := make([]mattermost.Attachment, 0, len(args))
	for _, a := range args {
		att := mattermost.Attachment{
			Fallback:   a.Fallback,
			Color:      a.Color,
			Pretext:    a.Pretext,
			Text:       a.Text,
			AuthorName: a.AuthorName,
			AuthorLink: a.AuthorLink,
			AuthorIcon: a.AuthorIcon,
			Title:      a.Title,
			TitleLink:  a.TitleLink,
			ImageURL:   a.ImageURL,
			ThumbURL:   a.ThumbURL,
			Footer:     a.Footer,
			FooterIcon: a.FooterIcon,
			Ts:         scalarString(a.Ts),
		}
		if a.ID != nil {
			att.ID = *a.ID
		}
		for _, f := range a.Fields {
			att.Fields = append(att.Fields, mattermost.AttachmentField{
				Title: f.Title,
				Value: scalarString(f.Value),
				Short: f.Short,
			})
		}
		out = append(out, att)
	}
	return out
}

// MessagesPack returns the message tools.
func MessagesPack() *Pack {
	return &Pack{
		ID: "messages",
		Tools: []*Tool{
			newTool("post_message", CapabilityWrite, additive(), []string{tagMessage},
				"Post a message to a Mattermost channel.\n\n"+
					"Send text messages with Markdown support.\n"+
					"Use root_id to reply in a thread.\n"+
					"Use file_ids to attach uploaded files.\n"+
					"Use attachments for rich formatted content.\n"+
					"To read all messages in a thread, use get_thread.\n\n"+
					"Attachment examples:\n"+
					`- Status alert: {"color": "danger", "title": "Build Failed", "text": "Tests failed on main"}`+"\n"+
					`- Success notification: {"color": "good", "title": "Deployed", "text": "v1.2.3 is live"}`+"\n"+
					`- With fields: {"title": "Ticket", "fields": [{"title": "Status", "value": "Open", "short": true}]}`,
				func(ctx context.Context, c *mattermost.Client, a postMessageArgs) (any, error) {
					return c.CreatePost(ctx, mattermost.CreatePostRequest{
						ChannelID: a.ChannelID,
						Message:   a.Message,
						RootID:    a.RootID,
						FileIDs:   a.FileIDs,
						Props:     mattermost.AttachmentProps(toAttachments(a.Attachments)),
					})
				}),
			newTool("get_channel_messages", CapabilityRead, readOnly(), []string{tagMessage, tagChannel},
				"Get recent messages from a channel.\n\n"+
					"Returns messages in reverse chronological order (newest first).\n"+
					"Use for reading channel conversation history.\n"+
					"For searching messages by keywords across channels, use search_messages instead.",
				func(ctx context.Context, c *mattermost.Client, a channelMessagesArgs) (any, error) {
					return c.GetPosts(ctx, a.ChannelID, a.Page, perPage(a.PerPage))
				}),
			newTool("search_messages", CapabilityRead, readOnly(), []string{tagMessage},
				"Search for messages matching specific criteria across channels.\n\n"+
					"Searches message content within a team.\n"+
					"For simply reading recent channel messages, use get_channel_messages instead.\n\n"+
					"Search syntax examples:\n"+
					`- Simple text: "deployment error"`+"\n"+
					`- From user: "from:username bug"`+"\n"+
					`- In channel: "in:channel-name release"`+"\n"+
					`- Date range: "after:2024-01-01 before:2024-02-01"`+"\n"+
					`- Combined: "from:alice in:dev-ops deployment failed"`,
				func(ctx context.Context, c *mattermost.Client, a searchMessagesArgs) (any, error) {
					return c.SearchPosts(ctx, a.TeamID, a.Terms, a.IsOrSearch)
				}),
			newTool("update_message", CapabilityWrite, additive(), []string{tagMessage},
				"Edit an existing message.\n\n"+
					"Can only edit your own messages (unless admin).\n"+
					"The message will show as edited.\n"+
					"Original content is replaced; edit history is not preserved.\n\n"+
					"Attachment examples:\n"+
					`- Status alert: {"color": "danger", "title": "Build Failed", "text": "Tests failed on main"}`+"\n"+
					`- With fields: {"title": "Ticket", "fields": [{"title": "Status", "value": "Open", "short": true}]}`,
				func(ctx context.Context, c *mattermost.Client, a updateMessageArgs) (any, error) {
					return c.UpdatePost(ctx, a.PostID, a.Message, mattermost.AttachmentProps(toAttachments(a.Attachments)))
				}),
			newTool("delete_message", CapabilityDelete, destructive(), []string{tagMessage},
				"Delete a message permanently.\n\n"+
					"Can only delete your own messages (unless admin).\n"+
					"Deleted messages cannot be recovered.\n"+
					"All reactions and thread context will be lost.",
				func(ctx context.Context, c *mattermost.Client, a postArgs) (any, error) {
					if err := c.DeletePost(ctx, a.PostID); err != nil {
						return nil, err
					}
					return msgMessageDeleted, nil
				}),
		},
	}
}
