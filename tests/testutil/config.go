// Package testutil provides shared test infrastructure for halyard tests:
// configuration builders and a log-capturing logger.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/systmms/halyard/internal/config"
	"github.com/systmms/halyard/internal/logging"
)

// TestConfigBuilder assembles halyard.yaml configurations programmatically,
// so tests do not have to hand-write YAML strings.
//
// Example usage:
//
//	cfg := testutil.NewTestConfig(t).
//	    WithLiteralKey("signing", "sixteen-byte-key").
//	    WithDefaults("signing", "15m").
//	    Write()
//	require.NoError(t, cfg.Load())
type TestConfigBuilder struct {
	def     *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig starts a builder holding a minimal valid configuration
// (version 1, no keys). The file lands in a per-test temp directory.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		def: &config.Definition{
			Version: 1,
			Keys:    make(map[string]config.KeyConfig),
		},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithKey adds a key backed by an arbitrary source.
func (b *TestConfigBuilder) WithKey(name, source string, cfg map[string]interface{}) *TestConfigBuilder {
	b.t.Helper()

	b.def.Keys[name] = config.KeyConfig{
		Source: source,
		Config: cfg,
	}
	return b
}

// WithLiteralKey adds a key whose material is embedded in the file itself.
func (b *TestConfigBuilder) WithLiteralKey(name, material string) *TestConfigBuilder {
	return b.WithKey(name, "literal", map[string]interface{}{"value": material})
}

// WithDefaults sets defaults.key and defaults.max_age. Pass "" to leave
// either unset.
func (b *TestConfigBuilder) WithDefaults(key, maxAge string) *TestConfigBuilder {
	b.t.Helper()

	b.def.Defaults = config.Defaults{Key: key, MaxAge: maxAge}
	return b
}

// Write marshals the definition to <tempdir>/halyard.yaml and returns a
// Config pointing at it. The config is not loaded; commands and tests load
// it themselves.
func (b *TestConfigBuilder) Write() *config.Config {
	b.t.Helper()

	data, err := yaml.Marshal(b.def)
	require.NoError(b.t, err)

	path := filepath.Join(b.tempDir, config.DefaultFilename)
	require.NoError(b.t, os.WriteFile(path, data, 0o600))

	return &config.Config{
		Path:   path,
		Logger: logging.New(false, true),
	}
}

// Dir exposes the builder's temp directory for tests that need to place
// companion files (key material, store files) next to the config.
func (b *TestConfigBuilder) Dir() string {
	return b.tempDir
}

// WriteTestConfig writes raw YAML content to a temp halyard.yaml and returns
// its path. Use it when a test needs exact control over the document, for
// example to exercise schema violations.
func WriteTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// LoadTestConfig loads the configuration at path, failing the test on any
// validation error, and returns the parsed definition.
func LoadTestConfig(t *testing.T, path string) *config.Definition {
	t.Helper()

	cfg := &config.Config{Path: path, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())
	return cfg.Definition
}
