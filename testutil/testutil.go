// Package testutil builds scripted fake MCP servers for exercising the
// client against a real subprocess. A fake server is a shell script that
// emits canned JSON-RPC lines on stdout; because the client correlates
// replies by arrival order, scripts can emit every reply up front and then
// sleep to keep the process alive.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ScriptServer writes body as an executable shell script and returns its
// path, for use as the command of a connection.
func ScriptServer(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakeserver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake server script: %v", err)
	}
	return path
}

// InitializeResult returns an initialize success reply line.
func InitializeResult(id int) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"fake-server","version":"0.1.0"},"capabilities":{"tools":{}}}}`, id)
}

// ErrorResponse returns an error reply line.
func ErrorResponse(id, code int, message string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":%d,"message":"%s"}}`, id, code, message)
}

// ToolsListResult returns a tools/list reply line carrying the given tools
// array JSON.
func ToolsListResult(id int, toolsJSON string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"tools":%s}}`, id, toolsJSON)
}

// TextResult returns a tools/call reply line with a single text content item.
func TextResult(id int, text string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"content":[{"type":"text","text":"%s"}]}}`, id, text)
}

// EmptyResult returns a reply line with an empty result object.
func EmptyResult(id int) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{}}`, id)
}

// Emit wraps a reply line in an echo command for embedding in a script.
func Emit(line string) string {
	return "echo '" + line + "'\n"
}
