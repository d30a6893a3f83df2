package fakes

import (
	"context"
	"time"

	"github.com/systmms/halyard/internal/keysource"
)

// FakeAkeylessClient is a test double for keysource.AkeylessAPI
type FakeAkeylessClient struct {
	// Token is the token returned by Authenticate
	Token string

	// TokenTTL is the TTL returned by Authenticate
	TokenTTL time.Duration

	// Secrets maps item paths to their values
	Secrets map[string]string

	// AuthErr is returned by Authenticate if set
	AuthErr error

	// GetErr is returned by GetSecret if set (overrides Secrets lookup)
	GetErr error

	// DescribeErr is returned by DescribeItem if set
	DescribeErr error

	// AuthCallCount tracks how many times Authenticate was called
	AuthCallCount int

	// GetCallCount tracks how many times GetSecret was called
	GetCallCount int
}

// NewFakeAkeylessClient creates a new fake Akeyless client with defaults
func NewFakeAkeylessClient() *FakeAkeylessClient {
	return &FakeAkeylessClient{
		Token:    "fake-akeyless-token",
		TokenTTL: 30 * time.Second,
		Secrets:  make(map[string]string),
	}
}

// SetSecret adds a secret to the fake Akeyless
func (f *FakeAkeylessClient) SetSecret(path, value string) {
	if f.Secrets == nil {
		f.Secrets = make(map[string]string)
	}
	f.Secrets[path] = value
}

// Authenticate obtains an access token
func (f *FakeAkeylessClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	f.AuthCallCount++
	if f.AuthErr != nil {
		return "", 0, f.AuthErr
	}
	return f.Token, f.TokenTTL, nil
}

// GetSecret retrieves a secret value by path
func (f *FakeAkeylessClient) GetSecret(ctx context.Context, token, path string, version *int) (string, error) {
	f.GetCallCount++
	if f.GetErr != nil {
		return "", f.GetErr
	}

	if value, ok := f.Secrets[path]; ok {
		return value, nil
	}
	return "", ErrFakeAkeylessSecretNotFound
}

// DescribeItem checks that a secret exists at the given path
func (f *FakeAkeylessClient) DescribeItem(ctx context.Context, token, path string) error {
	if f.DescribeErr != nil {
		return f.DescribeErr
	}

	if _, ok := f.Secrets[path]; ok {
		return nil
	}
	return ErrFakeAkeylessSecretNotFound
}

// ErrFakeAkeylessSecretNotFound is returned when a secret doesn't exist
var ErrFakeAkeylessSecretNotFound = &fakeAkeylessError{code: "itemNotFound", message: "secret not found"}

// ErrFakeAkeylessUnauthorized is returned for auth failures
var ErrFakeAkeylessUnauthorized = &fakeAkeylessError{code: "unauthorized", message: "authentication failed"}

type fakeAkeylessError struct {
	code    string
	message string
}

func (e *fakeAkeylessError) Error() string {
	return e.message
}

func (e *fakeAkeylessError) Code() string {
	return e.code
}

// Ensure FakeAkeylessClient implements keysource.AkeylessAPI
var _ keysource.AkeylessAPI = (*FakeAkeylessClient)(nil)
