package transport

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/akeyless-community/akeyless-mcp-plugin/profile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startScript writes body as an executable shell script and launches it.
func startScript(t *testing.T, body string) (*Process, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return StartProcess(ProcessConfig{Command: path, Logger: testLogger()})
}

func TestBuildArgv(t *testing.T) {
	auth := &profile.Auth{AccessType: "api_key", AccessID: "p-1"}

	tests := []struct {
		name string
		args []string
		auth *profile.Auth
		want []string
	}{
		{
			name: "no auth leaves args alone",
			args: []string{"mcp", "serve"},
			auth: nil,
			want: []string{"mcp", "serve"},
		},
		{
			name: "auth appended when flags absent",
			args: []string{"mcp"},
			auth: auth,
			want: []string{"mcp", "--access-type", "api_key", "--access-id", "p-1"},
		},
		{
			name: "explicit access-id flag suppresses injection",
			args: []string{"mcp", "--access-id", "p-9"},
			auth: auth,
			want: []string{"mcp", "--access-id", "p-9"},
		},
		{
			name: "equals form recognized",
			args: []string{"mcp", "--access-type=aws_iam"},
			auth: auth,
			want: []string{"mcp", "--access-type=aws_iam"},
		},
		{
			name: "flag name inside another token does not suppress",
			args: []string{"mcp", "--log---access-id-style"},
			auth: auth,
			want: []string{"mcp", "--log---access-id-style", "--access-type", "api_key", "--access-id", "p-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildArgv(tt.args, tt.auth)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildArgv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildEnv(t *testing.T) {
	environ := []string{"FOO=bar", "PATH=/custom/bin", "HOME=/somewhere/else"}
	env := buildEnv(environ)

	var gotPath, gotHome string
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			gotPath = v
		}
		if v, ok := strings.CutPrefix(kv, "HOME="); ok {
			gotHome = v
		}
	}

	if !strings.Contains(gotPath, "/custom/bin") {
		t.Errorf("PATH = %q, want original entries preserved", gotPath)
	}
	if !strings.Contains(gotPath, "/usr/local/bin") {
		t.Errorf("PATH = %q, want fallback dirs prepended", gotPath)
	}

	home, err := os.UserHomeDir()
	if err == nil && gotHome != home {
		t.Errorf("HOME = %q, want %q", gotHome, home)
	}

	found := false
	for _, kv := range env {
		if kv == "FOO=bar" {
			found = true
		}
	}
	if !found {
		t.Error("expected host environment to be inherited")
	}
}

func TestAugmentPath(t *testing.T) {
	t.Run("deduplicates existing entries", func(t *testing.T) {
		got := augmentPath("/usr/local/bin:/custom/bin")
		if strings.Count(got, "/usr/local/bin") != 1 {
			t.Errorf("augmentPath() = %q, want /usr/local/bin exactly once", got)
		}
	})

	t.Run("handles empty path", func(t *testing.T) {
		got := augmentPath("")
		if got == "" || strings.HasSuffix(got, ":") {
			t.Errorf("augmentPath(\"\") = %q", got)
		}
	})
}

func TestContainsAuthKeyword(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Please open your BROWSER to continue", true},
		{"authentication required", true},
		{"waiting for login...", true},
		{"OAuth flow started", true},
		{"listening on stdio", false},
	}
	for _, tt := range tests {
		if got := containsAuthKeyword(tt.line); got != tt.want {
			t.Errorf("containsAuthKeyword(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestStartProcess(t *testing.T) {
	t.Run("immediate exit surfaces stderr", func(t *testing.T) {
		_, err := startScript(t, "echo 'bad flag' >&2; exit 1")
		if err == nil {
			t.Fatal("expected error for immediately-exiting process")
		}
		if !strings.Contains(err.Error(), "bad flag") {
			t.Errorf("error = %v, want captured stderr", err)
		}
	})

	t.Run("missing executable fails", func(t *testing.T) {
		_, err := StartProcess(ProcessConfig{
			Command: "definitely-not-a-real-command-xyz",
			Logger:  testLogger(),
		})
		if err == nil {
			t.Fatal("expected error for missing executable")
		}
	})

	t.Run("live process reports alive and stops cleanly", func(t *testing.T) {
		p, err := startScript(t, "sleep 5")
		if err != nil {
			t.Fatalf("StartProcess: %v", err)
		}

		if !p.Alive() {
			t.Error("expected process to be alive")
		}

		done := make(chan struct{})
		go func() {
			p.Kill()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Kill did not return")
		}

		if p.Alive() {
			t.Error("expected process to be dead after Kill")
		}
	})

	t.Run("stderr tail is bounded", func(t *testing.T) {
		p, err := startScript(t, "i=0; while [ $i -lt 40 ]; do echo line$i >&2; i=$((i+1)); done; sleep 5")
		if err != nil {
			t.Fatalf("StartProcess: %v", err)
		}
		defer p.Kill()

		// Give the monitor time to drain.
		time.Sleep(200 * time.Millisecond)

		lines := strings.Split(p.StderrTail(), "\n")
		if len(lines) > stderrTailLines {
			t.Errorf("tail has %d lines, want at most %d", len(lines), stderrTailLines)
		}
		if !strings.Contains(p.StderrTail(), "line39") {
			t.Error("expected tail to keep the most recent lines")
		}
	})
}
