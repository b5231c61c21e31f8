// Package transport runs the MCP server CLI as a supervised subprocess and
// frames JSON-RPC messages over its stdio pipes, one JSON document per line.
//
// The read side is resilient by design: the CLI shares its stdout with
// whatever banners or diagnostics it chooses to print, so the reader scans
// line by line and discards anything that is not a protocol message.
package transport
