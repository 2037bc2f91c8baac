// ABOUTME: Response and request models for the Mattermost REST API
// ABOUTME: Known fields are typed; unknown fields are kept in Extra and written back on marshal

package mattermost

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Team is a Mattermost team.
type Team struct {
	ID              string `json:"id"`
	CreateAt        int64  `json:"create_at,omitempty"`
	UpdateAt        int64  `json:"update_at,omitempty"`
	DeleteAt        int64  `json:"delete_at,omitempty"`
	DisplayName     string `json:"display_name"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Email           string `json:"email,omitempty"`
	Type            string `json:"type"`
	AllowedDomains  string `json:"allowed_domains,omitempty"`
	InviteID        string `json:"invite_id,omitempty"`
	AllowOpenInvite bool   `json:"allow_open_invite,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// TeamMember links a user to a team.
type TeamMember struct {
	TeamID      string `json:"team_id"`
	UserID      string `json:"user_id"`
	Roles       string `json:"roles,omitempty"`
	DeleteAt    int64  `json:"delete_at,omitempty"`
	SchemeUser  bool   `json:"scheme_user,omitempty"`
	SchemeAdmin bool   `json:"scheme_admin,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Channel is a Mattermost channel. Type is O (public), P (private), D (direct) or G (group).
type Channel struct {
	ID            string `json:"id"`
	CreateAt      int64  `json:"create_at,omitempty"`
	UpdateAt      int64  `json:"update_at,omitempty"`
	DeleteAt      int64  `json:"delete_at,omitempty"`
	TeamID        string `json:"team_id"`
	Type          string `json:"type"`
	DisplayName   string `json:"display_name"`
	Name          string `json:"name"`
	Header        string `json:"header,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	LastPostAt    int64  `json:"last_post_at,omitempty"`
	TotalMsgCount int64  `json:"total_msg_count,omitempty"`
	CreatorID     string `json:"creator_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ChannelMember links a user to a channel.
type ChannelMember struct {
	ChannelID    string `json:"channel_id"`
	UserID       string `json:"user_id"`
	Roles        string `json:"roles,omitempty"`
	LastViewedAt int64  `json:"last_viewed_at,omitempty"`
	MsgCount     int64  `json:"msg_count,omitempty"`
	MentionCount int64  `json:"mention_count,omitempty"`
	LastUpdateAt int64  `json:"last_update_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Post is a message.
type Post struct {
	ID            string   `json:"id"`
	CreateAt      int64    `json:"create_at,omitempty"`
	UpdateAt      int64    `json:"update_at,omitempty"`
	DeleteAt      int64    `json:"delete_at,omitempty"`
	EditAt        int64    `json:"edit_at,omitempty"`
	UserID        string   `json:"user_id"`
	ChannelID     string   `json:"channel_id"`
	RootID        string   `json:"root_id,omitempty"`
	OriginalID    string   `json:"original_id,omitempty"`
	Message       string   `json:"message"`
	Type          string   `json:"type,omitempty"`
	Hashtags      string   `json:"hashtags,omitempty"`
	FileIDs       []string `json:"file_ids,omitempty"`
	PendingPostID string   `json:"pending_post_id,omitempty"`
	IsPinned      bool     `json:"is_pinned,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// PostList is an ordered page of posts keyed by id.
type PostList struct {
	Order      []string         `json:"order"`
	Posts      map[string]*Post `json:"posts"`
	NextPostID string           `json:"next_post_id,omitempty"`
	PrevPostID string           `json:"prev_post_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Ordered returns the posts in Order, skipping ids missing from Posts.
func (l *PostList) Ordered() []*Post {
	out := make([]*Post, 0, len(l.Order))
	for _, id := range l.Order {
		if p, ok := l.Posts[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Reaction is an emoji reaction on a post.
type Reaction struct {
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
	EmojiName string `json:"emoji_name"`
	CreateAt  int64  `json:"create_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// User is a Mattermost account.
type User struct {
	ID                 string `json:"id"`
	CreateAt           int64  `json:"create_at,omitempty"`
	UpdateAt           int64  `json:"update_at,omitempty"`
	DeleteAt           int64  `json:"delete_at,omitempty"`
	Username           string `json:"username"`
	FirstName          string `json:"first_name,omitempty"`
	LastName           string `json:"last_name,omitempty"`
	Nickname           string `json:"nickname,omitempty"`
	Email              string `json:"email,omitempty"`
	EmailVerified      bool   `json:"email_verified,omitempty"`
	AuthService        string `json:"auth_service,omitempty"`
	Roles              string `json:"roles,omitempty"`
	Locale             string `json:"locale,omitempty"`
	LastPasswordUpdate int64  `json:"last_password_update,omitempty"`
	LastPictureUpdate  int64  `json:"last_picture_update,omitempty"`
	MFAActive          bool   `json:"mfa_active,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UserStatus is a user's presence.
type UserStatus struct {
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Manual         bool   `json:"manual,omitempty"`
	LastActivityAt int64  `json:"last_activity_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// FileInfo is the metadata of an uploaded file.
type FileInfo struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id,omitempty"`
	PostID          string `json:"post_id,omitempty"`
	ChannelID       string `json:"channel_id,omitempty"`
	CreateAt        int64  `json:"create_at,omitempty"`
	UpdateAt        int64  `json:"update_at,omitempty"`
	DeleteAt        int64  `json:"delete_at,omitempty"`
	Name            string `json:"name"`
	Extension       string `json:"extension,omitempty"`
	Size            int64  `json:"size"`
	MimeType        string `json:"mime_type,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	HasPreviewImage bool   `json:"has_preview_image,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// FileUploadResponse is returned by POST /files.
type FileUploadResponse struct {
	FileInfos []*FileInfo `json:"file_infos"`
	ClientIDs []string    `json:"client_ids,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// FileLink is a public link to a file.
type FileLink struct {
	Link string `json:"link"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Bookmark types.
const (
	BookmarkTypeLink = "link"
	BookmarkTypeFile = "file"
)

// ChannelBookmark is a link or file pinned to a channel's bookmark bar.
type ChannelBookmark struct {
	ID          string    `json:"id"`
	CreateAt    int64     `json:"create_at,omitempty"`
	UpdateAt    int64     `json:"update_at,omitempty"`
	DeleteAt    int64     `json:"delete_at,omitempty"`
	ChannelID   string    `json:"channel_id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	FileID      string    `json:"file_id,omitempty"`
	DisplayName string    `json:"display_name"`
	SortOrder   int64     `json:"sort_order"`
	Type        string    `json:"type"`
	LinkURL     string    `json:"link_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Emoji       string    `json:"emoji,omitempty"`
	OriginalID  string    `json:"original_id,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	FileInfo    *FileInfo `json:"file_info,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// AttachmentField is one field of a message attachment.
type AttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}

// Attachment is a Slack-style message attachment sent in post props.
type Attachment struct {
	ID         int64             `json:"id,omitempty"`
	Fallback   string            `json:"fallback,omitempty"`
	Color      string            `json:"color,omitempty"`
	Pretext    string            `json:"pretext,omitempty"`
	Text       string            `json:"text,omitempty"`
	AuthorName string            `json:"author_name,omitempty"`
	AuthorLink string            `json:"author_link,omitempty"`
	AuthorIcon string            `json:"author_icon,omitempty"`
	Title      string            `json:"title,omitempty"`
	TitleLink  string            `json:"title_link,omitempty"`
	Fields     []AttachmentField `json:"fields,omitempty"`
	ImageURL   string            `json:"image_url,omitempty"`
	ThumbURL   string            `json:"thumb_url,omitempty"`
	Footer     string            `json:"footer,omitempty"`
	FooterIcon string            `json:"footer_icon,omitempty"`
	Ts         string            `json:"ts,omitempty"`
}

// The marshal methods below all follow one shape: decode into an alias type
// that has no methods, then collect the keys the struct does not declare.

func (t *Team) UnmarshalJSON(b []byte) error {
	type plain Team
	return unmarshalWithExtra(b, (*plain)(t), &t.Extra)
}

func (t Team) MarshalJSON() ([]byte, error) {
	type plain Team
	return marshalWithExtra(plain(t), t.Extra)
}

func (m *TeamMember) UnmarshalJSON(b []byte) error {
	type plain TeamMember
	return unmarshalWithExtra(b, (*plain)(m), &m.Extra)
}

func (m TeamMember) MarshalJSON() ([]byte, error) {
	type plain TeamMember
	return marshalWithExtra(plain(m), m.Extra)
}

func (c *Channel) UnmarshalJSON(b []byte) error {
	type plain Channel
	return unmarshalWithExtra(b, (*plain)(c), &c.Extra)
}

func (c Channel) MarshalJSON() ([]byte, error) {
	type plain Channel
	return marshalWithExtra(plain(c), c.Extra)
}

func (m *ChannelMember) UnmarshalJSON(b []byte) error {
	type plain ChannelMember
	return unmarshalWithExtra(b, (*plain)(m), &m.Extra)
}

func (m ChannelMember) MarshalJSON() ([]byte, error) {
	type plain ChannelMember
	return marshalWithExtra(plain(m), m.Extra)
}

func (p *Post) UnmarshalJSON(b []byte) error {
	type plain Post
	return unmarshalWithExtra(b, (*plain)(p), &p.Extra)
}

func (p Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return marshalWithExtra(plain(p), p.Extra)
}

func (l *PostList) UnmarshalJSON(b []byte) error {
	type plain PostList
	return unmarshalWithExtra(b, (*plain)(l), &l.Extra)
}

func (l PostList) MarshalJSON() ([]byte, error) {
	type plain PostList
	return marshalWithExtra(plain(l), l.Extra)
}

func (r *Reaction) UnmarshalJSON(b []byte) error {
	type plain Reaction
	return unmarshalWithExtra(b, (*plain)(r), &r.Extra)
}

func (r Reaction) MarshalJSON() ([]byte, error) {
	type plain Reaction
	return marshalWithExtra(plain(r), r.Extra)
}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	return unmarshalWithExtra(b, (*plain)(u), &u.Extra)
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return marshalWithExtra(plain(u), u.Extra)
}

func (s *UserStatus) UnmarshalJSON(b []byte) error {
	type plain UserStatus
	return unmarshalWithExtra(b, (*plain)(s), &s.Extra)
}

func (s UserStatus) MarshalJSON() ([]byte, error) {
	type plain UserStatus
	return marshalWithExtra(plain(s), s.Extra)
}

func (f *FileInfo) UnmarshalJSON(b []byte) error {
	type plain FileInfo
	return unmarshalWithExtra(b, (*plain)(f), &f.Extra)
}

func (f FileInfo) MarshalJSON() ([]byte, error) {
	type plain FileInfo
	return marshalWithExtra(plain(f), f.Extra)
}

func (r *FileUploadResponse) UnmarshalJSON(b []byte) error {
	type plain FileUploadResponse
	return unmarshalWithExtra(b, (*plain)(r), &r.Extra)
}

func (r FileUploadResponse) MarshalJSON() ([]byte, error) {
	type plain FileUploadResponse
	return marshalWithExtra(plain(r), r.Extra)
}

func (l *FileLink) UnmarshalJSON(b []byte) error {
	type plain FileLink
	return unmarshalWithExtra(b, (*plain)(l), &l.Extra)
}

func (l FileLink) MarshalJSON() ([]byte, error) {
	type plain FileLink
	return marshalWithExtra(plain(l), l.Extra)
}

func (bm *ChannelBookmark) UnmarshalJSON(b []byte) error {
	type plain ChannelBookmark
	return unmarshalWithExtra(b, (*plain)(bm), &bm.Extra)
}

func (bm ChannelBookmark) MarshalJSON() ([]byte, error) {
	type plain ChannelBookmark
	return marshalWithExtra(plain(bm), bm.Extra)
}

// knownKeys caches the JSON keys declared by each model type.
var knownKeys sync.Map // reflect.Type -> map[string]struct{}

func jsonKeys(t reflect.Type) map[string]struct{} {
	if cached, ok := knownKeys.Load(t); ok {
		return cached.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		keys[name] = struct{}{}
	}
	knownKeys.Store(t, keys)
	return keys
}

func unmarshalWithExtra(b []byte, known any, extra *map[string]json.RawMessage) error {
	if err := json.Unmarshal(b, known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}

	keys := jsonKeys(reflect.TypeOf(known).Elem())
	for k := range keys {
		delete(all, k)
	}
	if len(all) == 0 {
		*extra = nil
		return nil
	}
	*extra = all
	return nil
}

func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return b, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, errors.Wrap(err, "merging extra fields")
	}
	keys := jsonKeys(reflect.TypeOf(known))
	for k, v := range extra {
		if _, declared := keys[k]; declared {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}
