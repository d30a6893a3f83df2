package keysource_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/keysource"
)

// materialString fetches a source's material and returns it as a string.
func materialString(t *testing.T, src keysource.Source) string {
	t.Helper()

	sec, err := src.Material(context.Background())
	require.NoError(t, err)
	defer sec.Destroy()

	buf, err := sec.Open()
	require.NoError(t, err)
	defer buf.Destroy()

	return string(buf.Bytes())
}

// writeKeyFile drops key material with owner-only permissions.
func writeKeyFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceName(t *testing.T) {
	t.Parallel()

	path := writeKeyFile(t, t.TempDir(), "signing.key", "material")
	src, err := keysource.NewFileSource("signing", map[string]interface{}{"path": path})
	require.NoError(t, err)

	assert.Equal(t, "signing", src.Name())
}

func TestFileSourceMaterial(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     map[string]interface{}
		content string
		want    string
		wantErr string
	}{
		{
			name:    "raw",
			content: "raw key material",
			want:    "raw key material",
		},
		{
			name:    "base64",
			cfg:     map[string]interface{}{"encoding": "base64"},
			content: "a2V5LW1hdGVyaWFs\n",
			want:    "key-material",
		},
		{
			name:    "hex",
			cfg:     map[string]interface{}{"encoding": "hex"},
			content: "6b65792d6d6174657269616c",
			want:    "key-material",
		},
		{
			name:    "invalid_base64",
			cfg:     map[string]interface{}{"encoding": "base64"},
			content: "not!!base64",
			wantErr: "invalid base64",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeKeyFile(t, dir, tt.name+".key", tt.content)

			cfg := map[string]interface{}{"path": path}
			for k, v := range tt.cfg {
				cfg[k] = v
			}

			src, err := keysource.NewFileSource(tt.name, cfg)
			require.NoError(t, err)

			if tt.wantErr != "" {
				_, err := src.Material(context.Background())
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			assert.Equal(t, tt.want, materialString(t, src))
		})
	}
}

func TestFileSourceMissingPath(t *testing.T) {
	t.Parallel()

	_, err := keysource.NewFileSource("signing", map[string]interface{}{})

	var cfgErr hlerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "keys.signing.path", cfgErr.Field)
}

func TestFileSourceTildeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	keyDir := filepath.Join(home, ".config", "halyard")
	require.NoError(t, os.MkdirAll(keyDir, 0o700))
	writeKeyFile(t, keyDir, "signing.key", "home key")

	src, err := keysource.NewFileSource("signing", map[string]interface{}{
		"path": "~/.config/halyard/signing.key",
	})
	require.NoError(t, err)

	assert.Equal(t, "home key", materialString(t, src))
}

func TestFileSourceValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		path := writeKeyFile(t, dir, "ok.key", "material")
		src, err := keysource.NewFileSource("signing", map[string]interface{}{"path": path})
		require.NoError(t, err)

		assert.NoError(t, src.Validate(context.Background()))
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		src, err := keysource.NewFileSource("signing", map[string]interface{}{
			"path": filepath.Join(dir, "absent.key"),
		})
		require.NoError(t, err)

		var notFound keysource.NotFoundError
		require.ErrorAs(t, src.Validate(context.Background()), &notFound)
		assert.Equal(t, "signing", notFound.Source)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		src, err := keysource.NewFileSource("signing", map[string]interface{}{"path": dir})
		require.NoError(t, err)

		var cfgErr hlerrors.ConfigError
		require.ErrorAs(t, src.Validate(context.Background()), &cfgErr)
		assert.Contains(t, cfgErr.Message, "directory")
	})

	t.Run("world_readable", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not meaningful on Windows")
		}

		path := filepath.Join(dir, "loose.key")
		require.NoError(t, os.WriteFile(path, []byte("material"), 0o644))

		src, err := keysource.NewFileSource("signing", map[string]interface{}{"path": path})
		require.NoError(t, err)

		var userErr hlerrors.UserError
		require.ErrorAs(t, src.Validate(context.Background()), &userErr)
		assert.Contains(t, userErr.Message, "readable by other users")
		assert.Contains(t, userErr.Suggestion, "chmod 600")
	})
}
