// ABOUTME: Tests for the tool registry and tool definitions
// ABOUTME: Covers the full tool set, capability filtering, _meta, annotations and reflected schemas

package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-server-mattermost/internal/config"
)

var allToolNames = []string{
	"list_channels", "get_channel", "get_channel_by_name", "create_channel", "join_channel",
	"leave_channel", "get_channel_members", "add_user_to_channel", "create_direct_channel",
	"post_message", "get_channel_messages", "search_messages", "update_message", "delete_message",
	"add_reaction", "remove_reaction", "get_reactions", "pin_message", "unpin_message", "get_thread",
	"get_me", "get_user", "get_user_by_username", "search_users", "get_user_status",
	"list_teams", "get_team", "get_team_members",
	"upload_file", "get_file_info", "get_file_link",
	"list_bookmarks", "create_bookmark", "update_bookmark", "delete_bookmark", "update_bookmark_sort_order",
}

func TestRegistry_AllTools(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{})
	require.Equal(t, len(allToolNames), r.Len())

	names := make([]string, 0, r.Len())
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, allToolNames, names)
}

func TestRegistry_FiltersByCapability(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{Capabilities: []string{"read"}})
	require.NotZero(t, r.Len())
	for _, tool := range r.Tools() {
		assert.Equal(t, CapabilityRead, tool.Capability, tool.Name)
	}
	_, ok := r.Get("delete_message")
	assert.False(t, ok)
	_, ok = r.Get("get_me")
	assert.True(t, ok)

	r = NewRegistry(config.ToolsConfig{Capabilities: []string{"delete"}})
	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"delete_message", "delete_bookmark"}, names)
}

func TestCapabilities(t *testing.T) {
	want := map[string]Capability{
		"post_message":          CapabilityWrite,
		"update_message":        CapabilityWrite,
		"create_channel":        CapabilityCreate,
		"create_direct_channel": CapabilityCreate,
		"upload_file":           CapabilityCreate,
		"create_bookmark":       CapabilityCreate,
		"join_channel":          CapabilityWrite,
		"pin_message":           CapabilityWrite,
		"get_thread":            CapabilityRead,
		"delete_bookmark":       CapabilityDelete,
	}
	r := NewRegistry(config.ToolsConfig{})
	for name, capability := range want {
		tool, ok := r.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, capability, tool.Capability, name)
	}
}

func TestDefinition_MetaAndAnnotations(t *testing.T) {
	def := mustTool(t, "list_bookmarks").Definition()
	require.NotNil(t, def.Meta)
	assert.Equal(t, "read", def.Meta.AdditionalFields["capability"])
	assert.Equal(t, []string{"mattermost", "bookmark", "channel", "entry-required"}, def.Meta.AdditionalFields["tags"])
	require.NotNil(t, def.Annotations.ReadOnlyHint)
	assert.True(t, *def.Annotations.ReadOnlyHint)
	assert.Contains(t, def.Description, "Minimum version: v10.1.")

	del := mustTool(t, "delete_message").Definition()
	require.NotNil(t, del.Annotations.DestructiveHint)
	assert.True(t, *del.Annotations.DestructiveHint)
	assert.Nil(t, del.Annotations.ReadOnlyHint)

	create := mustTool(t, "create_channel").Definition()
	require.NotNil(t, create.Annotations.DestructiveHint)
	assert.False(t, *create.Annotations.DestructiveHint)
	assert.Nil(t, create.Annotations.IdempotentHint)
}

func TestDefinition_MarshalsMeta(t *testing.T) {
	data, err := json.Marshal(mustTool(t, "get_me").Definition())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	meta, ok := out["_meta"].(map[string]any)
	require.True(t, ok, "definition JSON should carry _meta: %s", data)
	assert.Equal(t, "read", meta["capability"])
	assert.Equal(t, "get_me", out["name"])
}

type schemaDoc struct {
	Type                 string                    `json:"type"`
	Required             []string                  `json:"required"`
	Properties           map[string]map[string]any `json:"properties"`
	AdditionalProperties *bool                     `json:"additionalProperties"`
	Schema               string                    `json:"$schema"`
}

func parseSchema(t *testing.T, name string) schemaDoc {
	t.Helper()
	var doc schemaDoc
	require.NoError(t, json.Unmarshal(mustTool(t, name).schema, &doc))
	return doc
}

func TestSchema_PostMessage(t *testing.T) {
	doc := parseSchema(t, "post_message")
	assert.Equal(t, "object", doc.Type)
	assert.Empty(t, doc.Schema)
	assert.ElementsMatch(t, []string{"channel_id", "message"}, doc.Required)
	require.NotNil(t, doc.AdditionalProperties)
	assert.False(t, *doc.AdditionalProperties)

	msg := doc.Properties["message"]
	assert.Equal(t, float64(1), msg["minLength"])
	assert.Equal(t, float64(16383), msg["maxLength"])

	channel := doc.Properties["channel_id"]
	assert.Equal(t, "^[a-zA-Z0-9]{26}$", channel["pattern"])
	assert.Contains(t, channel["description"], "26-character channel identifier")

	attachments := doc.Properties["attachments"]
	assert.Equal(t, "array", attachments["type"])
	items, ok := attachments["items"].(map[string]any)
	require.True(t, ok)
	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "author_link")
	assert.Contains(t, props, "fields")
}

func TestSchema_Pagination(t *testing.T) {
	doc := parseSchema(t, "list_channels")
	assert.Equal(t, []string{"team_id"}, doc.Required)
	assert.Equal(t, float64(60), doc.Properties["per_page"]["default"])
	assert.Equal(t, float64(200), doc.Properties["per_page"]["maximum"])
	assert.Equal(t, float64(0), doc.Properties["page"]["minimum"])
	assert.Equal(t, "integer", doc.Properties["page"]["type"])
}

func TestSchema_Enums(t *testing.T) {
	create := parseSchema(t, "create_channel")
	assert.Equal(t, []any{"O", "P", "D", "G"}, create.Properties["channel_type"]["enum"])
	assert.Equal(t, "O", create.Properties["channel_type"]["default"])

	bookmark := parseSchema(t, "create_bookmark")
	assert.Equal(t, []any{"link", "file"}, bookmark.Properties["bookmark_type"]["enum"])
	assert.ElementsMatch(t, []string{"channel_id", "display_name", "bookmark_type"}, bookmark.Required)
}

func TestSchema_NoArguments(t *testing.T) {
	doc := parseSchema(t, "get_me")
	assert.Equal(t, "object", doc.Type)
	assert.Empty(t, doc.Required)
	assert.Empty(t, doc.Properties)
}
