// ABOUTME: Channel bookmark tools: list, create, update, delete and reorder
// ABOUTME: Bookmarks need an Entry or higher Mattermost edition, v10.1 or later

package tools

import (
	"context"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

const editionNote = "\n\nNote: Requires Entry, Professional, Enterprise, or Enterprise Advanced edition\n" +
	"(not available in Team Edition). Minimum version: v10.1."

type listBookmarksArgs struct {
	ChannelID      string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	BookmarksSince *int64 `json:"bookmarks_since,omitempty" validate:"omitempty,gte=0" jsonschema_description:"Timestamp to filter bookmarks updated since"`
}

type createBookmarkArgs struct {
	ChannelID    string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	DisplayName  string `json:"display_name" validate:"required,min=1,max=255" jsonschema:"minLength=1,maxLength=255" jsonschema_description:"Bookmark display name"`
	BookmarkType string `json:"bookmark_type" validate:"required,oneof=link file" jsonschema:"enum=link,enum=file" jsonschema_description:"Bookmark type: 'link' or 'file'"`
	LinkURL      string `json:"link_url,omitempty" validate:"required_if=BookmarkType link" jsonschema_description:"URL (required for link type)"`
	FileID       string `json:"file_id,omitempty" validate:"required_if=BookmarkType file,omitempty,mmid" jsonschema_description:"File ID (required for file type)"`
	Emoji        string `json:"emoji,omitempty" jsonschema_description:"Emoji icon"`
	ImageURL     string `json:"image_url,omitempty" jsonschema_description:"Preview image URL"`
}

type updateBookmarkArgs struct {
	ChannelID   string  `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	BookmarkID  string  `json:"bookmark_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character bookmark identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=255" jsonschema_description:"New display name"`
	LinkURL     *string `json:"link_url,omitempty" jsonschema_description:"New URL"`
	ImageURL    *string `json:"image_url,omitempty" jsonschema_description:"New preview image URL"`
	Emoji       *string `json:"emoji,omitempty" jsonschema_description:"New emoji icon"`
}

type bookmarkArgs struct {
	ChannelID  string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	BookmarkID string `json:"bookmark_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character bookmark identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
}

type bookmarkSortOrderArgs struct {
	ChannelID    string `json:"channel_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character channel identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	BookmarkID   string `json:"bookmark_id" validate:"required,mmid" jsonschema:"pattern=^[a-zA-Z0-9]{26}$" jsonschema_description:"26-character bookmark identifier (e.g., 'o5w8h47pdfbzjc4d8w7dhnhren')"`
	NewSortOrder *int64 `json:"new_sort_order" validate:"required,gte=0" jsonschema:"minimum=0" jsonschema_description:"New position in bookmark list"`
}

var bookmarkTags = []string{tagBookmark, tagChannel, tagEntryRequired}

// BookmarksPack returns the channel bookmark tools.
func BookmarksPack() *Pack {
	return &Pack{
		ID: "bookmarks",
		Tools: []*Tool{
			newTool("list_bookmarks", CapabilityRead, readOnly(), bookmarkTags,
				"List all bookmarks in a channel.\n\n"+
					"Returns bookmarks in sort order.\n"+
					"Use to see saved links and files pinned to a channel.\n"+
					"For searching messages, use search_messages instead."+editionNote,
				func(ctx context.Context, c *mattermost.Client, a listBookmarksArgs) (any, error) {
					var since int64
					if a.BookmarksSince != nil {
						since = *a.BookmarksSince
					}
					return c.GetBookmarks(ctx, a.ChannelID, since)
				}),
			newTool("create_bookmark", CapabilityCreate, additive(), bookmarkTags,
				"Create a channel bookmark.\n\n"+
					"Creates a link bookmark (URL) or file bookmark (attached file).\n"+
					"For link type, link_url is required.\n"+
					"For file type, file_id is required (from upload_file)."+editionNote,
				func(ctx context.Context, c *mattermost.Client, a createBookmarkArgs) (any, error) {
					return c.CreateBookmark(ctx, mattermost.CreateBookmarkRequest{
						ChannelID:   a.ChannelID,
						DisplayName: a.DisplayName,
						Type:        a.BookmarkType,
						LinkURL:     a.LinkURL,
						FileID:      a.FileID,
						Emoji:       a.Emoji,
						ImageURL:    a.ImageURL,
					})
				}),
			newTool("update_bookmark", CapabilityWrite, idempotent(), bookmarkTags,
				"Update a channel bookmark.\n\n"+
					"Partially updates bookmark properties.\n"+
					"Only provided fields are updated; others remain unchanged."+editionNote,
				func(ctx context.Context, c *mattermost.Client, a updateBookmarkArgs) (any, error) {
					return c.UpdateBookmark(ctx, a.ChannelID, a.BookmarkID, mattermost.BookmarkPatch{
						DisplayName: a.DisplayName,
						LinkURL:     a.LinkURL,
						ImageURL:    a.ImageURL,
						Emoji:       a.Emoji,
					})
				}),
			newTool("delete_bookmark", CapabilityDelete, destructive(), bookmarkTags,
				"Delete a channel bookmark.\n\n"+
					"Archives the bookmark (soft delete via delete_at timestamp).\n"+
					"The bookmark will no longer appear in the channel."+editionNote,
				func(ctx context.Context, c *mattermost.Client, a bookmarkArgs) (any, error) {
					return c.DeleteBookmark(ctx, a.ChannelID, a.BookmarkID)
				}),
			newTool("update_bookmark_sort_order", CapabilityWrite, idempotent(), bookmarkTags,
				"Reorder a channel bookmark.\n\n"+
					"Moves the bookmark to the specified position.\n"+
					"Other bookmarks are automatically adjusted.\n"+
					"Returns all affected bookmarks with updated positions."+editionNote,
				func(ctx context.Context, c *mattermost.Client, a bookmarkSortOrderArgs) (any, error) {
					return c.UpdateBookmarkSortOrder(ctx, a.ChannelID, a.BookmarkID, *a.NewSortOrder)
				}),
		},
	}
}
