// ABOUTME: Registry of enabled tools, filtered by the configured capabilities
// ABOUTME: Produces mcp-go server tools bound to a Dispatcher

package tools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/2389/mcp-server-mattermost/internal/config"
)

// Packs returns every tool group in registration order.
func Packs() []*Pack {
	return []*Pack{
		ChannelsPack(),
		MessagesPack(),
		PostsPack(),
		UsersPack(),
		TeamsPack(),
		FilesPack(),
		BookmarksPack(),
	}
}

// Registry holds the tools enabled by configuration.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
}

// NewRegistry registers the tools whose capability cfg allows.
func NewRegistry(cfg config.ToolsConfig) *Registry {
	r := &Registry{byName: make(map[string]*Tool)}
	for _, pack := range Packs() {
		for _, t := range pack.Tools {
			if !cfg.HasCapability(string(t.Capability)) {
				continue
			}
			r.tools = append(r.tools, t)
			r.byName[t.Name] = t
		}
	}
	return r
}

// Tools returns the enabled tools in registration order.
func (r *Registry) Tools() []*Tool {
	return r.tools
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Len() int {
	return len(r.tools)
}

// ServerTools binds every enabled tool to d for registration with an MCP server.
func (r *Registry) ServerTools(d *Dispatcher) []server.ServerTool {
	out := make([]server.ServerTool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, server.ServerTool{Tool: t.Definition(), Handler: d.Handler(t)})
	}
	return out
}
