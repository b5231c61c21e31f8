package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/akeyless-community/akeyless-mcp-plugin/protocol"
)

const (
	// maxLineBytes is the largest stdout line the reader accepts. Sized for
	// large tool results.
	maxLineBytes = 1 << 20

	// recvQueueSize bounds the parsed-message queue between the reader
	// goroutine and Recv. With one exchange in flight at a time the queue
	// stays near empty; the headroom absorbs a server that replies early.
	recvQueueSize = 16

	// logLineLimit caps skipped-line excerpts in logs.
	logLineLimit = 200
)

// Errors returned by Recv.
var (
	// ErrRecvTimeout means no protocol message arrived before the deadline.
	ErrRecvTimeout = errors.New("timed out waiting for response")

	// ErrConnClosed means the subprocess exited or closed its stdout.
	ErrConnClosed = errors.New("connection closed")
)

// Stdio frames JSON-RPC messages over a supervised subprocess's stdio pipes.
// Writes put exactly one JSON document plus a newline on stdin. A dedicated
// reader goroutine scans stdout, discards anything that is not a protocol
// reply, and queues the survivors for Recv.
type Stdio struct {
	proc   *Process
	logger *slog.Logger

	writeMu sync.Mutex
	msgs    chan *protocol.Response
}

// NewStdio wraps a started process and begins reading its stdout.
func NewStdio(proc *Process, logger *slog.Logger) *Stdio {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stdio{
		proc:   proc,
		logger: logger,
		msgs:   make(chan *protocol.Response, recvQueueSize),
	}
	go s.readLoop()
	return s
}

// WriteRequest sends a request as a single line on stdin.
func (s *Stdio) WriteRequest(req *protocol.Request) error {
	return s.writeLine(req)
}

// WriteNotification sends a notification as a single line on stdin. No reply
// is expected.
func (s *Stdio) WriteNotification(notif *protocol.Notification) error {
	return s.writeLine(notif)
}

func (s *Stdio) writeLine(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.proc.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to subprocess stdin: %w", err)
	}
	return nil
}

// Recv returns the next protocol reply, waiting up to timeout. It returns
// ErrRecvTimeout when the deadline passes, ErrConnClosed when the subprocess
// exits or closes stdout, and the context error when ctx is done first.
//
// Replies are correlated to requests by arrival order: the caller is expected
// to have exactly one request in flight.
func (s *Stdio) Recv(ctx context.Context, timeout time.Duration) (*protocol.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-s.msgs:
		if !ok {
			if tail := s.proc.StderrTail(); tail != "" {
				s.logger.Debug("subprocess closed stdout", "stderr", tail)
			}
			return nil, ErrConnClosed
		}
		return msg, nil
	case <-timer.C:
		return nil, ErrRecvTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the underlying subprocess.
func (s *Stdio) Close() error {
	return s.proc.Stop()
}

// readLoop scans stdout line by line until the stream ends. Lines that are
// empty, non-JSON, non-objects, missing the jsonrpc marker, or carrying a
// method (server-initiated messages) are logged and dropped so they can never
// be mistaken for the reply to an in-flight request.
func (s *Stdio) readLoop() {
	defer close(s.msgs)

	scanner := bufio.NewScanner(s.proc.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		// Text copies out of the scanner's buffer; Response keeps raw
		// sub-slices of the line, so the copy matters.
		line := []byte(strings.TrimSpace(scanner.Text()))
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			s.logger.Debug("skipping non-protocol output", "line", excerpt(line))
			continue
		}

		var resp protocol.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			s.logger.Debug("skipping unparseable line", "line", excerpt(line), "error", err)
			continue
		}
		if resp.JSONRPC == "" {
			s.logger.Debug("skipping JSON without protocol marker", "line", excerpt(line))
			continue
		}
		if !resp.IsResponse() {
			s.logger.Debug("skipping server-initiated message", "method", resp.Method)
			continue
		}

		s.msgs <- &resp
	}

	if err := scanner.Err(); err != nil {
		s.logger.Debug("stdout read ended", "error", err)
	}
}

// excerpt truncates a line for log output.
func excerpt(line []byte) string {
	if len(line) > logLineLimit {
		return string(line[:logLineLimit]) + "..."
	}
	return string(line)
}
