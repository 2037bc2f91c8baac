// ABOUTME: Tool and Pack types shared by every Mattermost tool group
// ABOUTME: A tool decodes and validates its arguments before any session is opened

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

// Capability groups tools by the kind of change they make.
type Capability string

const (
	CapabilityRead   Capability = "read"
	CapabilityWrite  Capability = "write"
	CapabilityCreate Capability = "create"
	CapabilityDelete Capability = "delete"
)

// Tag values attached to tools.
const (
	tagMattermost    = "mattermost"
	tagChannel       = "channel"
	tagMessage       = "message"
	tagPost          = "post"
	tagUser          = "user"
	tagTeam          = "team"
	tagFile          = "file"
	tagBookmark      = "bookmark"
	tagEntryRequired = "entry-required"
)

// call runs a bound tool against an open session.
type call func(ctx context.Context, c *mattermost.Client) (any, error)

// Tool is one MCP tool backed by the Mattermost client.
type Tool struct {
	Name        string
	Description string
	Capability  Capability
	Tags        []string
	Annotations mcp.ToolAnnotation

	schema json.RawMessage
	bind   func(args any) (call, error)
}

// Pack is a named group of tools.
type Pack struct {
	ID    string
	Tools []*Tool
}

// message is a plain-text result for operations whose response has no body.
type message string

// Success messages for empty-bodied operations.
const (
	msgChannelLeft     message = "Channel left successfully"
	msgMessageDeleted  message = "Message deleted successfully"
	msgReactionRemoved message = "Reaction removed successfully"
)

// newTool builds a tool whose arguments decode into A. The input schema is
// reflected from A once, here.
func newTool[A any](name string, capability Capability, hints mcp.ToolAnnotation, tags []string, description string,
	run func(ctx context.Context, c *mattermost.Client, args A) (any, error)) *Tool {
	return &Tool{
		Name:        name,
		Description: description,
		Capability:  capability,
		Tags:        append([]string{tagMattermost}, tags...),
		Annotations: hints,
		schema:      schemaFor[A](),
		bind: func(raw any) (call, error) {
			var args A
			if err := decodeArguments(raw, &args); err != nil {
				return nil, err
			}
			if err := validateArguments(&args); err != nil {
				return nil, err
			}
			return func(ctx context.Context, c *mattermost.Client) (any, error) {
				return run(ctx, c, args)
			}, nil
		},
	}
}

// Definition returns the MCP tool definition, with the capability and tags in _meta.
func (t *Tool) Definition() mcp.Tool {
	def := mcp.NewToolWithRawSchema(t.Name, t.Description, t.schema)
	def.Annotations = t.Annotations
	def.Meta = mcp.NewMetaFromMap(map[string]any{
		"capability": string(t.Capability),
		"tags":       t.Tags,
	})
	return def
}

// Bind decodes and validates raw call arguments. Validation failures are
// *mattermost.ValidationError.
func (t *Tool) Bind(args any) (func(context.Context, *mattermost.Client) (any, error), error) {
	return t.bind(args)
}

// Annotation presets.

func readOnly() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: mcp.ToBoolPtr(true), IdempotentHint: mcp.ToBoolPtr(true)}
}

func additive() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{DestructiveHint: mcp.ToBoolPtr(false)}
}

func idempotent() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{DestructiveHint: mcp.ToBoolPtr(false), IdempotentHint: mcp.ToBoolPtr(true)}
}

func destructive() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{DestructiveHint: mcp.ToBoolPtr(true)}
}

// formatResult renders a tool's return value as text content.
func formatResult(out any) (*mcp.CallToolResult, error) {
	if m, ok := out.(message); ok {
		return mcp.NewToolResultText(string(m)), nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
