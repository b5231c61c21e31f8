// Package client provides the MCP client facade: it launches the Akeyless
// CLI as a supervised subprocess, performs the initialize handshake, and
// exposes tool discovery and invocation to the host application.
//
// All protocol exchanges are serialized: the stdio transport correlates
// replies by arrival order, so at most one request/response pair is ever in
// flight. Connection failures are never raised as panics; Connect returns an
// error and the same diagnostic stays readable via LastConnectionError.
package client
