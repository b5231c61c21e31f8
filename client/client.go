package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/akeyless-community/akeyless-mcp-plugin/middleware"
	"github.com/akeyless-community/akeyless-mcp-plugin/profile"
	"github.com/akeyless-community/akeyless-mcp-plugin/protocol"
	"github.com/akeyless-community/akeyless-mcp-plugin/schema"
	"github.com/akeyless-community/akeyless-mcp-plugin/transport"
)

// ErrNotConnected is returned by tool operations when no live connection
// exists. The call returns immediately without spawning anything.
var ErrNotConnected = errors.New("not connected")

// State tracks the connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingInit
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingInit:
		return "awaiting-init"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ServerInfo is captured from the initialize response.
type ServerInfo struct {
	Name            string
	Version         string
	ProtocolVersion string
}

// conn is the framed transport surface the client drives.
// *transport.Stdio satisfies it.
type conn interface {
	WriteRequest(*protocol.Request) error
	WriteNotification(*protocol.Notification) error
	Recv(ctx context.Context, timeout time.Duration) (*protocol.Response, error)
}

// supervised is the process handle surface the client drives.
// *transport.Process satisfies it.
type supervised interface {
	Alive() bool
	StderrTail() string
	Stop() error
	Kill()
}

// Option configures a Client.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	clientName       string
	clientVersion    string
	handshakeTimeout time.Duration
	callTimeout      time.Duration
	profilePath      string
	middleware       []middleware.Middleware
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClientInfo sets the identity advertised during initialization.
func WithClientInfo(name, version string) Option {
	return func(o *options) {
		o.clientName = name
		o.clientVersion = version
	}
}

// WithHandshakeTimeout bounds the wait for the initialize response. The
// default is generous because the CLI may first walk the user through an
// interactive browser login.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithCallTimeout bounds each tools/list and tools/call exchange.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

// WithProfilePath overrides the CLI profile file consulted for auth
// auto-injection. An empty path keeps the default location.
func WithProfilePath(path string) Option {
	return func(o *options) { o.profilePath = path }
}

// WithMiddleware wraps every tool exchange (not the handshake) with the
// given middleware, outermost first.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(o *options) { o.middleware = append(o.middleware, mw...) }
}

// Client owns at most one connection to an MCP server subprocess.
// It is safe for concurrent use; exchanges are serialized internally.
type Client struct {
	opts      options
	logger    *slog.Logger
	roundTrip middleware.HandlerFunc

	// exchangeMu admits one write+read exchange at a time. The transport
	// correlates replies by arrival order only, so overlapping exchanges
	// could cross-deliver responses.
	exchangeMu sync.Mutex

	// mu guards the connection handles and the request-id counter. It is
	// held only for pointer swaps, never across blocking I/O.
	mu         sync.Mutex
	proc       supervised
	conn       conn
	nextID     int64
	serverInfo *ServerInfo

	state   atomic.Int32
	lastErr atomic.Pointer[string]
}

// New creates a disconnected client.
func New(opts ...Option) *Client {
	o := options{
		logger:           slog.Default(),
		clientName:       "akeyless-mcp-plugin",
		clientVersion:    "1.0.0",
		handshakeTimeout: 3 * time.Minute,
		callTimeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		opts:   o,
		logger: o.logger,
	}
	c.roundTrip = middleware.Chain(o.middleware...)(c.exchange)
	return c
}

// Connect launches the MCP server process and performs the handshake. The
// args string is split on whitespace. Any previous connection is torn down
// first. On failure the client is left disconnected and the diagnostic is
// retrievable via LastConnectionError.
func (c *Client) Connect(ctx context.Context, command, args, workDir string) error {
	c.Disconnect()

	c.state.Store(int32(StateConnecting))
	c.setLastError("")

	log := c.logger.With("conn_id", uuid.NewString()[:8])

	auth := c.loadAuth(log)
	proc, err := transport.StartProcess(transport.ProcessConfig{
		Command: command,
		Args:    strings.Fields(args),
		Dir:     workDir,
		Auth:    auth,
		Logger:  log,
	})
	if err != nil {
		return c.fail(fmt.Errorf("start server process: %w", err))
	}

	stdio := transport.NewStdio(proc, log)
	c.mu.Lock()
	c.proc = proc
	c.conn = stdio
	c.nextID = 0
	c.serverInfo = nil
	c.mu.Unlock()
	c.state.Store(int32(StateAwaitingInit))

	if err := c.handshake(ctx, log); err != nil {
		c.mu.Lock()
		c.proc = nil
		c.conn = nil
		c.mu.Unlock()
		proc.Kill()
		return c.fail(err)
	}

	c.state.Store(int32(StateReady))
	return nil
}

// handshake sends initialize, waits for the reply, and completes with the
// initialized notification. Not gated by the exchange mutex: only one
// connection attempt runs at a time by construction.
func (c *Client) handshake(ctx context.Context, log *slog.Logger) error {
	c.mu.Lock()
	stdio := c.conn
	proc := c.proc
	c.mu.Unlock()

	params := map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.opts.clientName,
			"version": c.opts.clientVersion,
		},
	}
	req := protocol.NewRequest(c.allocID(), protocol.MethodInitialize, params)

	if err := stdio.WriteRequest(req); err != nil {
		return fmt.Errorf("send initialize: %w", err)
	}

	resp, err := stdio.Recv(ctx, c.opts.handshakeTimeout)
	if err != nil {
		diag := proc.StderrTail()
		if diag == "" {
			diag = "no response from server"
		}
		return fmt.Errorf("initialize: %s", diag)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize: %s", resp.Error.Message)
	}

	info := parseServerInfo(resp.Result)
	c.mu.Lock()
	c.serverInfo = info
	c.mu.Unlock()

	if err := stdio.WriteNotification(protocol.NewNotification(protocol.MethodInitialized, nil)); err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}

	log.Info("MCP server initialized",
		"server_name", info.Name,
		"server_version", info.Version,
		"protocol_version", info.ProtocolVersion,
	)
	return nil
}

// loadAuth resolves the optional auth pair for flag auto-injection.
func (c *Client) loadAuth(log *slog.Logger) *profile.Auth {
	var auth profile.Auth
	var ok bool
	if c.opts.profilePath != "" {
		auth, ok = profile.LoadFile(c.opts.profilePath, log)
	} else {
		auth, ok = profile.Load(log)
	}
	if !ok {
		return nil
	}
	log.Debug("using auth from CLI profile", "access_id", auth.AccessID, "access_type", auth.AccessType)
	return &auth
}

// Disconnect terminates the server process and discards the transport.
// Idempotent; safe from any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	proc := c.proc
	c.proc = nil
	c.conn = nil
	c.nextID = 0
	c.serverInfo = nil
	c.mu.Unlock()

	c.state.Store(int32(StateDisconnected))

	if proc != nil {
		if err := proc.Stop(); err != nil {
			c.logger.Debug("server process exit", "error", err)
		}
	}
}

// IsConnected reports whether a live server process exists. It is
// independent of handshake completion and never blocks on an in-flight
// exchange.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	proc := c.proc
	c.mu.Unlock()
	return proc != nil && proc.Alive()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// LastConnectionError returns the diagnostic from the most recent failed
// connect attempt, or the empty string. Replaced on every attempt.
func (c *Client) LastConnectionError() string {
	if s := c.lastErr.Load(); s != nil {
		return *s
	}
	return ""
}

// ServerInfo returns the identity captured during the handshake, or nil
// before a successful connect.
func (c *Client) ServerInfo() *ServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// ListTools fetches the server's tool descriptors. Malformed entries are
// skipped rather than failing the listing. Descriptors are fetched fresh on
// every call; callers cache if they need to.
func (c *Client) ListTools(ctx context.Context) ([]schema.Tool, error) {
	resp, err := c.call(ctx, protocol.MethodToolsList, nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tools/list: %w", error(resp.Error))
	}

	tools, err := schema.ParseToolsResult(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}
	c.logger.Debug("discovered tools", "count", len(tools))
	return tools, nil
}

// CallTool invokes a tool by name. Argument values are normalized before
// serialization. The raw response is returned with its result payload
// untouched so the caller can inspect result versus error itself.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*protocol.Response, error) {
	params := map[string]any{
		"name":      name,
		"arguments": schema.NormalizeArguments(args),
	}
	resp, err := c.call(ctx, protocol.MethodToolsCall, params)
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	return resp, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.call(ctx, protocol.MethodPing, nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

// call builds a request and runs it through the middleware-wrapped exchange.
func (c *Client) call(ctx context.Context, method string, params any) (*protocol.Response, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	req := protocol.NewRequest(c.allocID(), method, params)
	return c.roundTrip(ctx, req)
}

// exchange is the innermost round trip: one request line out, one reply in,
// under the serialization gate.
func (c *Client) exchange(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	c.exchangeMu.Lock()
	defer c.exchangeMu.Unlock()

	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()
	if cn == nil {
		return nil, ErrNotConnected
	}

	if err := cn.WriteRequest(req); err != nil {
		return nil, err
	}
	return cn.Recv(ctx, c.opts.callTimeout)
}

// allocID returns the next request ID, starting at 1 per connection.
func (c *Client) allocID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// fail records a connection diagnostic and leaves the client disconnected.
func (c *Client) fail(err error) error {
	c.setLastError(err.Error())
	c.state.Store(int32(StateDisconnected))
	c.logger.Warn("connection failed", "error", err)
	return err
}

func (c *Client) setLastError(msg string) {
	if msg == "" {
		c.lastErr.Store(nil)
		return
	}
	c.lastErr.Store(&msg)
}

// parseServerInfo decodes the interesting fields of an initialize result.
// Decode failures yield an empty ServerInfo rather than failing the
// handshake: the reply was already a well-formed result.
func parseServerInfo(result json.RawMessage) *ServerInfo {
	var payload struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	_ = json.Unmarshal(result, &payload)
	return &ServerInfo{
		Name:            payload.ServerInfo.Name,
		Version:         payload.ServerInfo.Version,
		ProtocolVersion: payload.ProtocolVersion,
	}
}
