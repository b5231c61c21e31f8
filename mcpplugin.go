// Package mcpplugin provides a client for MCP (Model Context Protocol)
// servers spoken to over subprocess stdio, as used by the Akeyless CLI to
// bridge vault-backed tools into MCP hosts.
//
// The client launches the server binary, performs the initialize handshake,
// and exposes tool discovery and invocation:
//
//	c := mcpplugin.NewClient()
//	if err := c.Connect(ctx, "akeyless", "mcp serve", ""); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	tools, err := c.ListTools(ctx)
//
// Middleware from the middleware package wraps every tool exchange:
//
//	c := mcpplugin.NewClient(
//	    client.WithMiddleware(middleware.DefaultStack(logger)...),
//	)
package mcpplugin

import (
	"github.com/akeyless-community/akeyless-mcp-plugin/client"
	"github.com/akeyless-community/akeyless-mcp-plugin/protocol"
	"github.com/akeyless-community/akeyless-mcp-plugin/schema"
)

// Version is the plugin release version reported in the handshake.
const Version = "1.0.0"

// Re-export core types for convenience.

// Client manages the connection to an MCP server subprocess.
type Client = client.Client

// Option configures a Client.
type Option = client.Option

// ServerInfo is captured from the initialize handshake.
type ServerInfo = client.ServerInfo

// Tool describes a tool advertised by the server.
type Tool = schema.Tool

// ArgumentSpec describes a single tool argument.
type ArgumentSpec = schema.ArgumentSpec

// Response is a raw JSON-RPC response.
type Response = protocol.Response

// Error is a JSON-RPC error object.
type Error = protocol.Error

// NewClient creates a disconnected client. Functional options from the
// client package configure logging, timeouts, and middleware.
func NewClient(opts ...Option) *Client {
	return client.New(opts...)
}
