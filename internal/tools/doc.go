// Package tools defines the Mattermost MCP tools.
//
// Tools are grouped into packs (channels, messages, posts, users, teams,
// files, bookmarks). Each tool declares an argument struct; its JSON Schema
// is reflected with invopop/jsonschema and its constraints are checked with
// go-playground/validator before a Mattermost session is opened.
//
// Every tool has a capability (read, write, create or delete) published in
// its _meta, and the tools.capabilities setting limits which ones are
// registered. The Dispatcher runs each call in its own session, logs
// tool_call_start / tool_call_success / tool_call_error, and turns failures
// into MCP tool errors rather than protocol errors.
package tools
