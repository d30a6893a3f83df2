package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/halyard/internal/logging"
)

func capture(t *testing.T, debug bool, fn func(*logging.Logger)) string {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.New(debug, true)
	logger.SetOutput(&buf)
	fn(logger)
	return buf.String()
}

// A key passed through the Secret wrapper must never reach the log writer
// in clear, at any level or in any format shape.
func TestSecretRedactionAtInfoLevel(t *testing.T) {
	t.Parallel()

	secretValue := "super-secret-password-12345"
	output := capture(t, false, func(l *logging.Logger) {
		l.Info("Retrieved key: %s", logging.Secret(secretValue))
	})

	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, secretValue)
	assert.Contains(t, output, "Retrieved key")
}

func TestSecretRedactionAtDebugLevel(t *testing.T) {
	t.Parallel()

	secretValue := "debug-secret-api-key-67890"
	output := capture(t, true, func(l *logging.Logger) {
		l.Debug("Processing key: %s", logging.Secret(secretValue))
	})

	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, secretValue)
	assert.Contains(t, output, "[DEBUG]")
}

func TestMultipleSecretsRedaction(t *testing.T) {
	t.Parallel()

	secret1 := "password-123"
	secret2 := "api-key-456"
	secret3 := "token-789"

	output := capture(t, false, func(l *logging.Logger) {
		l.Info("Credentials: password=%s, api_key=%s, token=%s",
			logging.Secret(secret1),
			logging.Secret(secret2),
			logging.Secret(secret3))
	})

	assert.Equal(t, 3, strings.Count(output, "[REDACTED]"))
	assert.NotContains(t, output, secret1)
	assert.NotContains(t, output, secret2)
	assert.NotContains(t, output, secret3)
}

func TestSecretRedactionWithFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		formatStr  string
		formatArgs []interface{}
	}{
		{
			name:       "string_format",
			secret:     "secret-string-format",
			formatStr:  "Value: %s",
			formatArgs: []interface{}{logging.Secret("secret-string-format")},
		},
		{
			name:       "quoted_format",
			secret:     "secret-quoted",
			formatStr:  "Value: '%s'",
			formatArgs: []interface{}{logging.Secret("secret-quoted")},
		},
		{
			name:       "json_like_format",
			secret:     "secret-json",
			formatStr:  `{"key": "%s"}`,
			formatArgs: []interface{}{logging.Secret("secret-json")},
		},
		{
			name:       "multiple_placeholders",
			secret:     "secret-multi",
			formatStr:  "First: %s, Second: %s",
			formatArgs: []interface{}{"public", logging.Secret("secret-multi")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			output := capture(t, false, func(l *logging.Logger) {
				l.Info(tt.formatStr, tt.formatArgs...)
			})

			assert.Contains(t, output, "[REDACTED]")
			assert.NotContains(t, output, tt.secret)
		})
	}
}

func TestNonSecretDataNotRedacted(t *testing.T) {
	t.Parallel()

	publicValue := "public-information"
	secretValue := "private-secret-123"

	output := capture(t, false, func(l *logging.Logger) {
		l.Info("Public: %s, Secret: %s", publicValue, logging.Secret(secretValue))
	})

	assert.Contains(t, output, publicValue)
	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, secretValue)
}

func TestSecretRedactionAcrossLogLevels(t *testing.T) {
	t.Parallel()

	secretValue := "multi-level-secret-abc"

	levels := []struct {
		name  string
		debug bool
		logFn func(*logging.Logger, string, ...interface{})
	}{
		{"info", false, (*logging.Logger).Info},
		{"warn", false, (*logging.Logger).Warn},
		{"error", false, (*logging.Logger).Error},
		{"debug", true, (*logging.Logger).Debug},
	}

	for _, tt := range levels {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			output := capture(t, tt.debug, func(l *logging.Logger) {
				tt.logFn(l, "Secret: %s", logging.Secret(secretValue))
			})

			assert.Contains(t, output, "[REDACTED]")
			assert.NotContains(t, output, secretValue)
		})
	}
}
