// ABOUTME: Channel bookmark resource methods
// ABOUTME: Link bookmarks need a URL, file bookmarks need a file id; checked before any request

package mattermost

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// CreateBookmarkRequest describes a new bookmark. ChannelID is part of the path, not the body.
type CreateBookmarkRequest struct {
	ChannelID   string `json:"-"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	LinkURL     string `json:"link_url,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Validate checks the type-dependent required fields.
func (r CreateBookmarkRequest) Validate() error {
	switch r.Type {
	case BookmarkTypeLink:
		if r.LinkURL == "" {
			return &ValidationError{Message: "link_url is required for link bookmarks"}
		}
	case BookmarkTypeFile:
		if r.FileID == "" {
			return &ValidationError{Message: "file_id is required for file bookmarks"}
		}
	default:
		return &ValidationError{Message: "bookmark type must be \"link\" or \"file\", got " + strconv.Quote(r.Type)}
	}
	return nil
}

// BookmarkPatch lists the fields to change. Nil fields are left as they are.
type BookmarkPatch struct {
	DisplayName *string `json:"display_name,omitempty"`
	LinkURL     *string `json:"link_url,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Emoji       *string `json:"emoji,omitempty"`
	FileID      *string `json:"file_id,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p.DisplayName == nil && p.LinkURL == nil && p.ImageURL == nil && p.Emoji == nil && p.FileID == nil
}

// updateBookmarkResponseKey holds the bookmark in PATCH responses.
const updateBookmarkResponseKey = "updated"

// GetBookmarks lists a channel's bookmarks. since, when positive, limits the
// result to bookmarks changed after that Unix millisecond timestamp.
func (c *Client) GetBookmarks(ctx context.Context, channelID string, since int64) ([]*ChannelBookmark, error) {
	var query url.Values
	if since > 0 {
		query = url.Values{"bookmarks_since": {strconv.FormatInt(since, 10)}}
	}
	return decode[[]*ChannelBookmark](c.Get(ctx, "/channels/"+seg(channelID)+"/bookmarks", query))
}

func (c *Client) CreateBookmark(ctx context.Context, req CreateBookmarkRequest) (*ChannelBookmark, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return decode[*ChannelBookmark](c.Post(ctx, "/channels/"+seg(req.ChannelID)+"/bookmarks", req))
}

// UpdateBookmark applies a partial update and returns the bookmark as changed.
func (c *Client) UpdateBookmark(ctx context.Context, channelID, bookmarkID string, patch BookmarkPatch) (*ChannelBookmark, error) {
	if patch.IsEmpty() {
		return nil, &ValidationError{Message: "at least one bookmark field must be updated"}
	}

	raw, err := c.Patch(ctx, "/channels/"+seg(channelID)+"/bookmarks/"+seg(bookmarkID), patch)
	if err != nil {
		return nil, err
	}

	var wrapped map[string]json.RawMessage
	if json.Unmarshal(raw, &wrapped) == nil {
		if updated, ok := wrapped[updateBookmarkResponseKey]; ok && len(updated) > 0 && updated[0] == '{' {
			raw = updated
		}
	}
	return decode[*ChannelBookmark](raw, nil)
}

// DeleteBookmark archives a bookmark and returns it with delete_at set.
func (c *Client) DeleteBookmark(ctx context.Context, channelID, bookmarkID string) (*ChannelBookmark, error) {
	return decode[*ChannelBookmark](c.Delete(ctx, "/channels/"+seg(channelID)+"/bookmarks/"+seg(bookmarkID)))
}

// UpdateBookmarkSortOrder moves a bookmark and returns every bookmark whose order changed.
func (c *Client) UpdateBookmarkSortOrder(ctx context.Context, channelID, bookmarkID string, order int64) ([]*ChannelBookmark, error) {
	if order < 0 {
		return nil, &ValidationError{Message: "sort order must not be negative"}
	}
	path := "/channels/" + seg(channelID) + "/bookmarks/" + seg(bookmarkID) + "/sort_order"
	return decode[[]*ChannelBookmark](c.Post(ctx, path, order))
}
