package keysource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// FileSource reads key material from a local file. The file must be private
// to the current user (mode 0600 or stricter on Unix).
type FileSource struct {
	name     string
	path     string
	encoding string
}

// NewFileSource creates a file source from its configuration map.
func NewFileSource(name string, cfg map[string]interface{}) (*FileSource, error) {
	s := &FileSource{name: name}

	if path, ok := cfg["path"].(string); ok {
		s.path = path
	}
	if s.path == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".path",
			Message:    "path is required for the file source",
			Suggestion: "Point path at the key file, for example ~/.config/halyard/signing.key",
		}
	}

	if strings.HasPrefix(s.path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		s.path = filepath.Join(home, s.path[2:])
	}

	encoding, err := parseEncoding("keys."+name, cfg)
	if err != nil {
		return nil, err
	}
	s.encoding = encoding

	return s, nil
}

// Name returns the key name.
func (s *FileSource) Name() string {
	return s.name
}

// Material reads and decodes the key file.
func (s *FileSource) Material(ctx context.Context) (*secret.Secret, error) {
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", s.path, err)
	}

	material, err := decodeMaterial(data, s.encoding)
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", s.path, err)
	}

	return secret.New(material)
}

// Validate checks that the key file exists, is a regular file, and is not
// readable by other users.
func (s *FileSource) Validate(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotFoundError{Source: s.name, Key: s.path}
		}
		return fmt.Errorf("stat key file %s: %w", s.path, err)
	}

	if info.IsDir() {
		return hlerrors.ConfigError{
			Field:      "keys." + s.name + ".path",
			Value:      s.path,
			Message:    "key path is a directory",
			Suggestion: "Point path at the key file itself",
		}
	}

	// Windows file modes don't carry Unix permission bits.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
		return hlerrors.UserError{
			Message:    fmt.Sprintf("Key file %s is readable by other users", s.path),
			Details:    fmt.Sprintf("mode is %04o, want 0600 or stricter", info.Mode().Perm()),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s'", s.path),
		}
	}

	return nil
}

// NewFileSourceFactory creates a file source factory.
func NewFileSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewFileSource(name, cfg)
}
