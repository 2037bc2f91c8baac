// Package mcp builds the Model Context Protocol server for Mattermost.
//
// # Overview
//
// The wire protocol is handled by github.com/mark3labs/mcp-go. This package
// registers the tools from internal/tools, decides which Mattermost token each
// call runs with, and exposes the two transports:
//
//   - ServeStdio: JSON-RPC over stdin/stdout for desktop clients
//   - HTTPHandler: the streamable HTTP transport, mounted by internal/gateway at /mcp
//
// # Sessions
//
// Every tool call opens a fresh Mattermost client session and closes it when
// the call returns. The session token is the caller's verified bearer token
// when allow_http_client_tokens is on and the request carried one; otherwise
// it is the configured static token.
//
// # Usage
//
//	srv, err := mcp.NewServer(mcp.Config{
//		Settings: cfg.Mattermost,
//		Tools:    cfg.Tools,
//		Version:  version,
//		Logger:   logger,
//	})
//	if err != nil {
//		return err
//	}
//	return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
//
// # Client configuration
//
// A Claude Desktop entry for the stdio transport:
//
//	{
//	  "mcpServers": {
//	    "mattermost": {
//	      "command": "mcp-server-mattermost",
//	      "env": {
//	        "MATTERMOST_URL": "https://chat.example.com",
//	        "MATTERMOST_TOKEN": "<personal access token>"
//	      }
//	    }
//	  }
//	}
package mcp
