package transport

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/akeyless-community/akeyless-mcp-plugin/profile"
)

const (
	// startupGracePeriod is how long StartProcess waits before checking that
	// the child survived launch, so immediate-exit failures surface with a
	// useful diagnostic instead of a broken pipe later.
	startupGracePeriod = 300 * time.Millisecond

	// stopGracePeriod is how long Stop waits for a clean exit after closing
	// stdin before killing the process.
	stopGracePeriod = 5 * time.Second

	// stderrTailLines bounds the number of recent stderr lines retained for
	// diagnostics.
	stderrTailLines = 20
)

// Auth flags recognized in caller-supplied arguments. When neither is
// present and a profile auth pair exists, both are auto-injected.
const (
	flagAccessType = "--access-type"
	flagAccessID   = "--access-id"
)

// authKeywords flag stderr lines that hint at a pending interactive login.
var authKeywords = []string{"browser", "authentication", "login", "auth"}

// ProcessConfig describes the subprocess to launch.
type ProcessConfig struct {
	// Command is the executable to run; resolved via ResolveCommand.
	Command string

	// Args are the caller-supplied arguments, already tokenized.
	Args []string

	// Dir is the working directory for the subprocess. Empty means inherit.
	Dir string

	// Auth, when non-nil, is appended as --access-type/--access-id unless
	// Args already carries either flag.
	Auth *profile.Auth

	// Logger receives supervision and stderr diagnostics.
	Logger *slog.Logger
}

// Process is a live supervised subprocess with distinct stdin, stdout, and
// stderr pipes. Stderr is drained continuously in the background.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	logger *slog.Logger

	done    chan struct{}
	waitErr error

	mu   sync.Mutex
	tail []string
}

// StartProcess launches the configured command with merged environment and
// piped stdio, waits a short grace period, and fails with captured stderr if
// the process died immediately.
func StartProcess(cfg ProcessConfig) (*Process, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	command := ResolveCommand(cfg.Command)
	args := buildArgv(cfg.Args, cfg.Auth)

	logger.Info("starting MCP subprocess", "command", command, "args", args)

	cmd := exec.Command(command, args...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(os.Environ())

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stderr.Close()
		stdout.Close()
		stdin.Close()
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		logger: logger,
		done:   make(chan struct{}),
	}

	go p.monitorStderr(stderr)
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	// Let immediate-exit failures (bad flags, missing auth, broken binary)
	// surface now rather than as a dead pipe on the first write.
	time.Sleep(startupGracePeriod)
	if !p.Alive() {
		diag := p.StderrTail()
		if diag == "" {
			diag = fmt.Sprintf("exit: %v", p.waitErr)
		}
		return nil, fmt.Errorf("process exited during startup: %s", diag)
	}

	logger.Info("MCP subprocess started", "pid", cmd.Process.Pid)
	return p, nil
}

// buildArgv appends auto-discovered auth flags unless the caller already
// supplied either auth flag as its own token.
func buildArgv(args []string, auth *profile.Auth) []string {
	argv := make([]string, len(args))
	copy(argv, args)

	if auth == nil || hasAuthFlags(argv) {
		return argv
	}
	return append(argv, flagAccessType, auth.AccessType, flagAccessID, auth.AccessID)
}

// hasAuthFlags checks token presence of the recognized auth flags. Matching
// whole tokens (including the --flag=value form) avoids the false positives
// a substring search over the joined argument string would produce.
func hasAuthFlags(args []string) bool {
	for _, arg := range args {
		if arg == flagAccessType || arg == flagAccessID {
			return true
		}
		if strings.HasPrefix(arg, flagAccessType+"=") || strings.HasPrefix(arg, flagAccessID+"=") {
			return true
		}
	}
	return false
}

// buildEnv copies the host environment, prepends the fallback bin dirs to
// PATH (deduplicated, existing entries preserved), and forces HOME to the
// current user's home directory.
func buildEnv(environ []string) []string {
	env := make([]string, 0, len(environ)+1)

	var currentPath string
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			currentPath = v
			continue
		}
		if strings.HasPrefix(kv, "HOME=") {
			continue
		}
		env = append(env, kv)
	}

	env = append(env, "PATH="+augmentPath(currentPath))
	if home, err := os.UserHomeDir(); err == nil {
		env = append(env, "HOME="+home)
	}
	return env
}

// augmentPath prepends the fallback bin dirs not already present in path.
func augmentPath(path string) string {
	existing := make(map[string]bool)
	for _, dir := range strings.Split(path, string(os.PathListSeparator)) {
		existing[dir] = true
	}

	var prepend []string
	for _, dir := range fallbackBinDirs() {
		if !existing[dir] {
			prepend = append(prepend, dir)
			existing[dir] = true
		}
	}

	if len(prepend) == 0 {
		return path
	}
	joined := strings.Join(prepend, string(os.PathListSeparator))
	if path == "" {
		return joined
	}
	return joined + string(os.PathListSeparator) + path
}

// monitorStderr drains stderr for the lifetime of the process. Every line is
// logged and retained in the bounded tail; lines that look auth-related are
// raised to warn level as a hint that an interactive login may be pending.
// Read errors end the loop silently: a closed stream is the normal terminal
// condition here, never a failure.
func (p *Process) monitorStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		p.appendTail(line)

		if containsAuthKeyword(line) {
			p.logger.Warn("subprocess stderr suggests pending authentication", "line", line)
			continue
		}
		p.logger.Debug("subprocess stderr", "line", line)
	}
}

// containsAuthKeyword matches the fixed keyword set case-insensitively.
func containsAuthKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p *Process) appendTail(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tail = append(p.tail, line)
	if len(p.tail) > stderrTailLines {
		p.tail = p.tail[len(p.tail)-stderrTailLines:]
	}
}

// StderrTail returns the most recent stderr lines, newline-joined, for use
// as a failure diagnostic.
func (p *Process) StderrTail() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.tail, "\n")
}

// Alive reports whether the process is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Pid returns the process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stop closes stdin to request a clean exit, waits up to the stop grace
// period, then kills the process. Safe to call on a dead process.
func (p *Process) Stop() error {
	p.stdin.Close()

	select {
	case <-p.done:
		return p.waitErr
	case <-time.After(stopGracePeriod):
		p.logger.Warn("subprocess did not exit after stdin close, killing", "pid", p.Pid())
		_ = p.cmd.Process.Kill()
		<-p.done
		return nil
	}
}

// Kill terminates the process immediately.
func (p *Process) Kill() {
	_ = p.cmd.Process.Kill()
	<-p.done
}
