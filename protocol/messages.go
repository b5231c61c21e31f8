package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version tag carried by every message.
const JSONRPCVersion = "2.0"

// Request represents an outbound JSON-RPC 2.0 request. Requests carry a
// monotonically increasing integer ID, assigned per connection starting at 1.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest creates a request for the given method and params.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Notification represents an outbound JSON-RPC 2.0 notification. Notifications
// carry no ID and expect no reply.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification creates a notification for the given method and params.
func NewNotification(method string, params any) *Notification {
	return &Notification{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}
}

// Response represents an inbound JSON-RPC 2.0 message. The Method field is
// populated only for unsolicited server-initiated messages; a well-formed
// reply to one of our requests has it empty and exactly one of Result or
// Error set. Result is kept raw so payloads pass through unmutated.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsResponse reports whether the message is a reply to a request, as opposed
// to a server-initiated request or notification.
func (r *Response) IsResponse() bool {
	return r.JSONRPC != "" && r.Method == ""
}
