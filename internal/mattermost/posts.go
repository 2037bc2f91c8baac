// ABOUTME: Post, thread, search, reaction and pin resource methods
// ABOUTME: Reactions are added as the session's acting user

package mattermost

import (
	"context"
)

// CreatePostRequest is the body of POST /posts. Empty optional fields are omitted.
type CreatePostRequest struct {
	ChannelID string         `json:"channel_id"`
	Message   string         `json:"message"`
	RootID    string         `json:"root_id,omitempty"`
	FileIDs   []string       `json:"file_ids,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
}

type updatePostRequest struct {
	ID      string         `json:"id"`
	Message string         `json:"message"`
	Props   map[string]any `json:"props,omitempty"`
}

type searchPostsRequest struct {
	Terms      string `json:"terms"`
	IsOrSearch bool   `json:"is_or_search"`
}

// AttachmentProps wraps attachments in the props shape Mattermost expects.
// It returns nil for no attachments.
func AttachmentProps(attachments []Attachment) map[string]any {
	if len(attachments) == 0 {
		return nil
	}
	return map[string]any{"attachments": attachments}
}

// GetPosts returns a page of a channel's posts, newest first.
func (c *Client) GetPosts(ctx context.Context, channelID string, page, perPage int) (*PostList, error) {
	return decode[*PostList](c.Get(ctx, "/channels/"+seg(channelID)+"/posts", pageQuery(page, perPage)))
}

func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	return decode[*Post](c.Post(ctx, "/posts", req))
}

func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	return decode[*Post](c.Get(ctx, "/posts/"+seg(postID), nil))
}

// UpdatePost replaces a post's message and, when props is non-empty, its props.
func (c *Client) UpdatePost(ctx context.Context, postID, message string, props map[string]any) (*Post, error) {
	body := updatePostRequest{ID: postID, Message: message, Props: props}
	return decode[*Post](c.Put(ctx, "/posts/"+seg(postID), body))
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := c.Delete(ctx, "/posts/"+seg(postID))
	return err
}

// SearchPosts runs a Mattermost search query (supports in:, from:, etc.) within a team.
// isOr joins terms with OR instead of AND.
func (c *Client) SearchPosts(ctx context.Context, teamID, terms string, isOr bool) (*PostList, error) {
	body := searchPostsRequest{Terms: terms, IsOrSearch: isOr}
	return decode[*PostList](c.Post(ctx, "/teams/"+seg(teamID)+"/posts/search", body))
}

// GetThread returns a root post and all its replies.
func (c *Client) GetThread(ctx context.Context, postID string) (*PostList, error) {
	return decode[*PostList](c.Get(ctx, "/posts/"+seg(postID)+"/thread", nil))
}

// AddReaction reacts to a post as the acting user. emojiName has no colons.
func (c *Client) AddReaction(ctx context.Context, postID, emojiName string) (*Reaction, error) {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	body := Reaction{UserID: userID, PostID: postID, EmojiName: emojiName}
	return decode[*Reaction](c.Post(ctx, "/reactions", body))
}

func (c *Client) RemoveReaction(ctx context.Context, postID, emojiName string) error {
	_, err := c.Delete(ctx, "/users/me/posts/"+seg(postID)+"/reactions/"+seg(emojiName))
	return err
}

func (c *Client) GetReactions(ctx context.Context, postID string) ([]*Reaction, error) {
	return decode[[]*Reaction](c.Get(ctx, "/posts/"+seg(postID)+"/reactions", nil))
}

// PinPost pins a post to its channel. The server answers with a status object,
// not the post; fetch it again with GetPost.
func (c *Client) PinPost(ctx context.Context, postID string) error {
	_, err := c.Post(ctx, "/posts/"+seg(postID)+"/pin", nil)
	return err
}

func (c *Client) UnpinPost(ctx context.Context, postID string) error {
	_, err := c.Post(ctx, "/posts/"+seg(postID)+"/unpin", nil)
	return err
}
