package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// SourceError enhances key source errors with context. The cause is
// carried in Details so redaction applied when it was formatted survives
// into the displayed message.
func SourceError(source string, operation string, err error) error {
	suggestion := getSourceSuggestion(source, err)

	return UserError{
		Message:    fmt.Sprintf("%s source error during %s", source, operation),
		Details:    err.Error(),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getSourceSuggestion returns helpful suggestions based on source type and error
func getSourceSuggestion(source string, err error) string {
	errStr := err.Error()

	switch source {
	case "keyring":
		if strings.Contains(errStr, "not found") {
			return "Verify the service and user entry exist in your OS keyring"
		}
		if strings.Contains(errStr, "dbus") || strings.Contains(errStr, "no such keyring") {
			return "A desktop keyring daemon (gnome-keyring, kwallet) must be running"
		}

	case "aws.secretsmanager", "aws.ssm":
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			if source == "aws.ssm" {
				return "Check IAM permissions for ssm:GetParameter"
			}
			return "Check IAM permissions for secretsmanager:GetSecretValue"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		}
		if strings.Contains(errStr, "ParameterNotFound") {
			return "Verify the parameter name and region. List parameters with: 'aws ssm describe-parameters'"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "gcp.secretmanager":
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set GOOGLE_APPLICATION_CREDENTIALS"
		}
		if strings.Contains(errStr, "PermissionDenied") {
			return "Grant roles/secretmanager.secretAccessor on the secret or project"
		}
		if strings.Contains(errStr, "NotFound") {
			return "Verify the resource name: projects/<project>/secrets/<name>/versions/<version>"
		}

	case "azure.keyvault":
		if strings.Contains(errStr, "DefaultAzureCredential") || strings.Contains(errStr, "failed to acquire a token") {
			return "Authenticate with 'az login' or set AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET"
		}
		if strings.Contains(errStr, "SecretNotFound") || strings.Contains(errStr, "NotFound") {
			return "Verify the vault URL and secret name with: 'az keyvault secret list --vault-name <vault>'"
		}
		if strings.Contains(errStr, "Forbidden") {
			return "Assign the 'Key Vault Secrets User' role or an access policy with get permission"
		}

	case "akeyless":
		if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "access id") {
			return "Check the access_id and access_key configured for this source"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the item path. List items with: 'akeyless list-items'"
		}

	case "file":
		if strings.Contains(errStr, "no such file") {
			return "Verify the path exists and is spelled correctly"
		}
		if strings.Contains(errStr, "permission denied") {
			return "Check the file's permissions; key files should be readable by you alone"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and source configuration"
	}

	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
		"unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "json:") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Validate your JSON at https://jsonlint.com/",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
