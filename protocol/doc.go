// Package protocol defines the JSON-RPC 2.0 message types, MCP method names,
// and error codes spoken over the stdio transport.
//
// Outbound traffic uses the typed Request and Notification structs. Inbound
// traffic is decoded into Response, a permissive envelope that also captures
// server-initiated messages so the transport can tell replies apart from
// unsolicited chatter.
package protocol
