package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/logging"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "keys.signing.source",
		Value:      "vault9",
		Message:    "Unknown source type",
		Suggestion: "Use one of: file, keyring, aws.secretsmanager",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "keys.signing.source")
	assert.Contains(t, errMsg, "vault9")
	assert.Contains(t, errMsg, "Unknown source type")
	assert.Contains(t, errMsg, "file, keyring, aws.secretsmanager")
}

// TestKeyringSourceSuggestions verifies keyring-specific error suggestions
func TestKeyringSourceSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		errorMsg           string
		expectedSuggestion string
	}{
		{
			name:               "entry_missing",
			errorMsg:           "secret not found in keyring",
			expectedSuggestion: "service and user entry",
		},
		{
			name:               "no_daemon",
			errorMsg:           "failed to connect to dbus",
			expectedSuggestion: "keyring daemon",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sourceErr := errors.SourceError("keyring", "fetch", fmt.Errorf("%s", tt.errorMsg))
			assert.Contains(t, sourceErr.Error(), tt.expectedSuggestion)
		})
	}
}

// TestAWSSourceSuggestions verifies AWS-specific error suggestions
func TestAWSSourceSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		source             string
		errorMsg           string
		expectedSuggestion string
	}{
		{
			name:               "credentials",
			source:             "aws.secretsmanager",
			errorMsg:           "credentials not found",
			expectedSuggestion: "aws configure",
		},
		{
			name:               "access_denied",
			source:             "aws.secretsmanager",
			errorMsg:           "AccessDenied",
			expectedSuggestion: "secretsmanager:GetSecretValue",
		},
		{
			name:               "ssm_access_denied",
			source:             "aws.ssm",
			errorMsg:           "AccessDenied",
			expectedSuggestion: "ssm:GetParameter",
		},
		{
			name:               "not_found",
			source:             "aws.secretsmanager",
			errorMsg:           "ResourceNotFoundException",
			expectedSuggestion: "list-secrets",
		},
		{
			name:               "parameter_not_found",
			source:             "aws.ssm",
			errorMsg:           "ParameterNotFound",
			expectedSuggestion: "describe-parameters",
		},
		{
			name:               "throttling",
			source:             "aws.secretsmanager",
			errorMsg:           "ThrottlingException",
			expectedSuggestion: "rate limit",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sourceErr := errors.SourceError(tt.source, "fetch", fmt.Errorf("%s", tt.errorMsg))
			assert.Contains(t, sourceErr.Error(), tt.expectedSuggestion)
		})
	}
}

// TestGCPSourceSuggestions verifies GCP-specific error suggestions
func TestGCPSourceSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		errorMsg           string
		expectedSuggestion string
	}{
		{
			name:               "no_adc",
			errorMsg:           "could not find default credentials",
			expectedSuggestion: "gcloud auth application-default login",
		},
		{
			name:               "permission_denied",
			errorMsg:           "rpc error: code = PermissionDenied",
			expectedSuggestion: "secretmanager.secretAccessor",
		},
		{
			name:               "not_found",
			errorMsg:           "rpc error: code = NotFound",
			expectedSuggestion: "projects/<project>/secrets/<name>",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sourceErr := errors.SourceError("gcp.secretmanager", "fetch", fmt.Errorf("%s", tt.errorMsg))
			assert.Contains(t, sourceErr.Error(), tt.expectedSuggestion)
		})
	}
}

// TestAzureSourceSuggestions verifies Azure-specific error suggestions
func TestAzureSourceSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		errorMsg           string
		expectedSuggestion string
	}{
		{
			name:               "credential_chain",
			errorMsg:           "DefaultAzureCredential: failed to acquire a token",
			expectedSuggestion: "az login",
		},
		{
			name:               "not_found",
			errorMsg:           "SecretNotFound",
			expectedSuggestion: "az keyvault secret list",
		},
		{
			name:               "forbidden",
			errorMsg:           "Forbidden",
			expectedSuggestion: "Key Vault Secrets User",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sourceErr := errors.SourceError("azure.keyvault", "fetch", fmt.Errorf("%s", tt.errorMsg))
			assert.Contains(t, sourceErr.Error(), tt.expectedSuggestion)
		})
	}
}

// TestIsRetryable verifies retryable error detection
func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errorMsg  string
		retryable bool
	}{
		{"timeout", "operation timeout", true},
		{"deadline", "context deadline exceeded", true},
		{"rate_limit", "rate limit exceeded", true},
		{"throttling", "ThrottlingException", true},
		{"connection_reset", "connection reset by peer", true},
		{"broken_pipe", "broken pipe", true},
		{"grpc_unavailable", "rpc error: code = Unavailable", true},
		{"not_found", "resource not found", false},
		{"invalid_config", "invalid configuration", false},
		{"bad_signature", "token digest mismatch", false},
		{"nil_error", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			if tt.errorMsg != "" {
				err = fmt.Errorf("%s", tt.errorMsg)
			}

			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		})
	}
}

// TestSimplifyError verifies error simplification for common cases
func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		inputError    error
		expectedType  string
		expectedInMsg string
	}{
		{
			name:          "yaml_error",
			inputError:    fmt.Errorf("yaml: line 5: mapping values are not allowed"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid YAML",
		},
		{
			name:          "json_error",
			inputError:    fmt.Errorf("json: invalid character"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid JSON",
		},
		{
			name:          "permission_denied",
			inputError:    fmt.Errorf("permission denied"),
			expectedType:  "UserError",
			expectedInMsg: "Permission denied",
		},
		{
			name:          "file_not_found",
			inputError:    fmt.Errorf("no such file or directory"),
			expectedType:  "UserError",
			expectedInMsg: "not found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.inputError)
			assert.Contains(t, simplified.Error(), tt.expectedInMsg)

			switch tt.expectedType {
			case "ConfigError":
				_, ok := simplified.(errors.ConfigError)
				assert.True(t, ok, "Should be ConfigError type")
			case "UserError":
				_, ok := simplified.(errors.UserError)
				assert.True(t, ok, "Should be UserError type")
			}
		})
	}
}

// TestUserErrorUnwrap verifies error unwrapping works correctly
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	baseErr := fmt.Errorf("base error")
	userErr := errors.UserError{
		Message: "wrapped error",
		Err:     baseErr,
	}

	assert.Equal(t, baseErr, userErr.Unwrap())
}

// TestSourceErrorPreservesRedaction verifies a Secret formatted into the
// cause remains redacted through SourceError wrapping.
func TestSourceErrorPreservesRedaction(t *testing.T) {
	t.Parallel()

	secretValue := "api-key-super-secret-123"
	baseErr := fmt.Errorf("authentication failed with key: %s", logging.Secret(secretValue))

	sourceErr := errors.SourceError("akeyless", "fetch", baseErr)
	errMsg := sourceErr.Error()

	assert.Contains(t, errMsg, "akeyless source error")
	assert.Contains(t, errMsg, "[REDACTED]")
	assert.NotContains(t, errMsg, secretValue)
}

// TestNilErrorHandling verifies nil errors are handled gracefully
func TestNilErrorHandling(t *testing.T) {
	t.Parallel()

	assert.False(t, errors.IsRetryable(nil))
	assert.Nil(t, errors.SimplifyError(nil))
}
