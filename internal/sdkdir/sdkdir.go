// Package sdkdir resolves halyard's per-user data directory, where stores,
// profiles and other tool state live.
package sdkdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvOverride names the environment variable that pins the data directory,
// taking precedence over the XDG lookup.
const EnvOverride = "HALYARD_DATA_DIR"

// Dir returns the data directory path without creating it.
func Dir() string {
	if override := os.Getenv(EnvOverride); override != "" {
		return override
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "halyard")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "halyard")
	}

	// Last resort: use temp directory
	return filepath.Join(os.TempDir(), "halyard")
}

// Ensure creates the data directory if needed and returns its path.
// The directory is private to the user.
func Ensure() (string, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	_ = markHidden(dir) // cosmetic, platform-dependent
	return dir, nil
}

// Path joins parts under the data directory without creating anything.
func Path(parts ...string) string {
	return filepath.Join(append([]string{Dir()}, parts...)...)
}

// List returns the entry names in the data directory. A directory that
// does not exist yet reads as empty.
func List() ([]string, error) {
	entries, err := os.ReadDir(Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// SafeName replaces characters that might be problematic in filenames
func SafeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(name)
}
