package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/halyard/internal/config"
	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/logging"
)

// watchConfig returns the minimal config the watch command needs; it never
// loads halyard.yaml.
func watchConfig() *config.Config {
	return &config.Config{Logger: logging.New(false, true)}
}

func TestRenderParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		input  string
		want   string
	}{
		{
			name:   "lines joins without trailing newline",
			format: "lines",
			input:  "alpha\nbeta\n",
			want:   "alpha\nbeta",
		},
		{
			name:   "yaml re-renders the document",
			format: "yaml",
			input:  "key: value\n",
			want:   "key: value",
		},
		{
			name:   "json pretty-prints with sorted keys",
			format: "json",
			input:  `{"b": 1, "a": 2}`,
			want:   "{\n  \"a\": 2,\n  \"b\": 1\n}",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parse, err := renderParser(tt.format)
			require.NoError(t, err)

			got, err := parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderParserUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := renderParser("toml")

	var userErr hlerrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, "Unknown watch format 'toml'")
	assert.Contains(t, userErr.Suggestion, "lines, yaml, json")
}

func TestWatchCommandOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rendered.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_HOST=db\nDB_PORT=5432\n"), 0o644))

	output := captureStdout(t, NewWatchCommand(watchConfig()),
		[]string{"--once", "--wait", "2s", path})

	assert.Equal(t, "DB_HOST=db\nDB_PORT=5432\n", output)
}

func TestWatchCommandOnceYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("replicas: 3\n"), 0o644))

	output := captureStdout(t, NewWatchCommand(watchConfig()),
		[]string{"--once", "--format", "yaml", "--wait", "2s", path})

	assert.Equal(t, "replicas: 3\n", output)
}

func TestWatchCommandFileNeverAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.env")

	cmd := NewWatchCommand(watchConfig())
	cmd.SetArgs([]string{"--wait", "150ms", "--interval", "20ms", path})

	err := cmd.Execute()
	require.Error(t, err)

	var userErr hlerrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, "did not become readable within")
	assert.Contains(t, userErr.Suggestion, "--wait")
}

func TestWatchCommandRejectsUnknownFormat(t *testing.T) {
	cmd := NewWatchCommand(watchConfig())
	cmd.SetArgs([]string{"--format", "toml", "--once", "whatever.file"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown watch format")
}
