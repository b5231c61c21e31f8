package transport

import (
	"os"
	"os/exec"
	"path/filepath"
)

// fallbackBinDirs lists common install locations probed when PATH lookup
// fails: package-manager prefixes, system bin dirs, and user-local bin dirs.
func fallbackBinDirs() []string {
	dirs := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/opt/local/bin",
		"/usr/bin",
		"/bin",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, ".akeyless", "bin"),
		)
	}
	return dirs
}

// ResolveCommand turns a bare executable name into an absolute path by
// probing PATH and then the fallback install locations. Already-absolute
// commands are returned unchanged. When nothing matches, the original token
// is returned as-is so process start can surface the clearer "command not
// found" error. This function cannot fail.
func ResolveCommand(command string) string {
	if filepath.IsAbs(command) {
		return command
	}

	if path, err := exec.LookPath(command); err == nil {
		return path
	}

	for _, dir := range fallbackBinDirs() {
		candidate := filepath.Join(dir, command)
		if isExecutable(candidate) {
			return candidate
		}
	}

	return command
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
