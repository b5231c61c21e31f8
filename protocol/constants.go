package protocol

// MCPVersion is the protocol version advertised during initialization.
const MCPVersion = "2024-11-05"

// MCP method names used by the client.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodPing        = "ping"
)
