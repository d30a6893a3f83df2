package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/internal/logging"
	"github.com/systmms/halyard/pkg/secret"
	"github.com/systmms/halyard/pkg/token"
)

// verifyWithMaterial checks a command-issued token out of band.
func verifyWithMaterial(t *testing.T, material, message, tok string) (token.Header, error) {
	t.Helper()

	key, err := secret.FromString(material)
	require.NoError(t, err)
	defer key.Destroy()

	return token.Verify(key, message, tok)
}

func TestSignCommandPrintsToken(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())

	output := captureStdout(t, NewSignCommand(cfg), []string{"deploy:2026-08-25"})

	tok := strings.TrimSpace(output)
	require.NotEmpty(t, tok)
	assert.NotContains(t, tok, "\n", "token must be a single line")

	header, err := verifyWithMaterial(t, testKeyMaterial, "deploy:2026-08-25", tok)
	require.NoError(t, err)
	assert.Equal(t, token.Version, header.Version)
}

func TestSignCommandReadsStdin(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())
	feedStdin(t, "from-pipe\n")

	output := captureStdout(t, NewSignCommand(cfg), []string{})

	_, err := verifyWithMaterial(t, testKeyMaterial, "from-pipe", strings.TrimSpace(output))
	assert.NoError(t, err)
}

func TestSignCommandNamedKey(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())

	output := captureStdout(t, NewSignCommand(cfg), []string{"--key", "other", "release-42"})
	tok := strings.TrimSpace(output)

	_, err := verifyWithMaterial(t, "a-second-key-that-shares-nothing", "release-42", tok)
	assert.NoError(t, err, "token must verify under the key it was signed with")

	_, err = verifyWithMaterial(t, testKeyMaterial, "release-42", tok)
	assert.ErrorIs(t, err, token.ErrInvalidSignature, "default key must not verify it")
}

func TestSignCommandMaxAge(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want time.Duration
	}{
		{
			name: "flag overrides defaults",
			args: []string{"--max-age", "1h", "msg"},
			want: time.Hour,
		},
		{
			name: "defaults.max_age applies without flag",
			args: []string{"msg"},
			want: 15 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeTestConfig(t, t.TempDir())

			before := time.Now()
			output := captureStdout(t, NewSignCommand(cfg), tt.args)

			header, err := verifyWithMaterial(t, testKeyMaterial, "msg", strings.TrimSpace(output))
			require.NoError(t, err)

			// Expiry is second-granular; allow a little slack around it.
			assert.WithinDuration(t, before.Add(tt.want), header.Expiry, 5*time.Second)
		})
	}
}

func TestSignCommandMissingConfig(t *testing.T) {
	cfg := &config.Config{
		Path:   t.TempDir() + "/halyard.yaml",
		Logger: logging.New(false, true),
	}

	cmd := NewSignCommand(cfg)
	cmd.SetArgs([]string{"msg"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}
