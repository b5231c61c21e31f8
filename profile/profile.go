// Package profile reads default authentication parameters from the local
// Akeyless CLI profile so the plugin can launch the CLI without explicit
// auth flags.
//
// Lookup is strictly best-effort: a missing file, unreadable file, malformed
// line, or incomplete pair all collapse to "no auth available". Nothing in
// this package returns an error to the caller.
package profile

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultRelPath is the profile location under the user's home directory.
const defaultRelPath = ".akeyless/profiles/default.toml"

// Profile keys holding the auth pair.
const (
	keyAccessType = "access_type"
	keyAccessID   = "access_id"
)

// Auth is the access-type/access-id pair used to authenticate the CLI.
// Either both fields are populated or the pair is treated as absent.
type Auth struct {
	AccessType string
	AccessID   string
}

// Load reads the default profile file. The second return value is false when
// no complete auth pair could be recovered.
func Load(logger *slog.Logger) (Auth, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("cannot resolve home directory for CLI profile", "error", err)
		return Auth{}, false
	}
	return LoadFile(filepath.Join(home, defaultRelPath), logger)
}

// LoadFile reads an auth pair from the profile file at path. The file uses a
// simple "key = value" line format; quoting characters and surrounding
// whitespace are stripped. Lines that do not parse are ignored.
func LoadFile(path string, logger *slog.Logger) (Auth, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read CLI profile", "path", path, "error", err)
		}
		return Auth{}, false
	}
	defer f.Close()

	var auth Auth
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case keyAccessType:
			auth.AccessType = value
		case keyAccessID:
			auth.AccessID = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("error scanning CLI profile", "path", path, "error", err)
		return Auth{}, false
	}

	if auth.AccessType == "" || auth.AccessID == "" {
		return Auth{}, false
	}
	return auth, true
}

// parseLine splits a "key = value" line, trimming whitespace and quotes.
func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}

	key = strings.TrimSpace(key)
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
