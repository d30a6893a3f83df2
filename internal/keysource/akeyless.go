package keysource

import (
	"context"
	"fmt"
	"strings"
	"time"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// defaultAkeylessGateway is the public Akeyless API endpoint.
const defaultAkeylessGateway = "https://api.akeyless.io"

// AkeylessAPI defines the Akeyless operations used by the source. This
// allows for mocking in tests.
type AkeylessAPI interface {
	Authenticate(ctx context.Context) (token string, ttl time.Duration, err error)
	GetSecret(ctx context.Context, token, path string, version *int) (string, error)
	DescribeItem(ctx context.Context, token, path string) error
}

// AkeylessSource reads key material from Akeyless.
type AkeylessSource struct {
	name     string
	client   AkeylessAPI
	path     string
	version  *int
	encoding string
	tokens   *tokenCache
}

// AkeylessOption is a functional option for configuring the source.
type AkeylessOption func(*AkeylessSource)

// WithAkeylessClient sets a custom Akeyless client (for testing).
func WithAkeylessClient(client AkeylessAPI) AkeylessOption {
	return func(s *AkeylessSource) {
		s.client = client
	}
}

// NewAkeylessSource creates an Akeyless source from its configuration map.
func NewAkeylessSource(name string, cfg map[string]interface{}, opts ...AkeylessOption) (*AkeylessSource, error) {
	s := &AkeylessSource{
		name:   name,
		tokens: newTokenCache(),
	}

	if path, ok := cfg["path"].(string); ok {
		s.path = path
	}
	if s.path == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".path",
			Message:    "path is required for the akeyless source",
			Suggestion: "Set path to the secret item, for example /prod/halyard/signing-key",
		}
	}
	if !strings.HasPrefix(s.path, "/") {
		s.path = "/" + s.path
	}

	if version, ok := cfg["version"].(int); ok {
		v := version
		s.version = &v
	}

	encoding, err := parseEncoding("keys."+name, cfg)
	if err != nil {
		return nil, err
	}
	s.encoding = encoding

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := newAkeylessSDKClient(parseAkeylessCredentials(cfg))
		if err != nil {
			return nil, err
		}
		s.client = client
	}

	return s, nil
}

// akeylessCredentials holds the API key authentication settings.
type akeylessCredentials struct {
	AccessID   string
	AccessKey  string
	GatewayURL string
}

func parseAkeylessCredentials(cfg map[string]interface{}) akeylessCredentials {
	creds := akeylessCredentials{GatewayURL: defaultAkeylessGateway}

	if accessID, ok := cfg["access_id"].(string); ok {
		creds.AccessID = accessID
	}
	if accessKey, ok := cfg["access_key"].(string); ok {
		creds.AccessKey = accessKey
	}
	if gatewayURL, ok := cfg["gateway_url"].(string); ok && gatewayURL != "" {
		creds.GatewayURL = gatewayURL
	}

	return creds
}

// Name returns the key name.
func (s *AkeylessSource) Name() string {
	return s.name
}

// Material fetches the secret value and decodes it.
func (s *AkeylessSource) Material(ctx context.Context) (*secret.Secret, error) {
	token, err := s.getToken(ctx)
	if err != nil {
		return nil, err
	}

	value, err := s.client.GetSecret(ctx, token, s.path, s.version)
	if err != nil {
		if isAkeylessNotFound(err) {
			return nil, NotFoundError{Source: s.name, Key: s.path}
		}
		return nil, fmt.Errorf("akeyless fetch %s: %w", s.path, err)
	}

	material, err := decodeMaterial([]byte(value), s.encoding)
	if err != nil {
		return nil, fmt.Errorf("akeyless item %s: %w", s.path, err)
	}

	return secret.New(material)
}

// Validate authenticates and checks that the configured item exists.
func (s *AkeylessSource) Validate(ctx context.Context) error {
	token, err := s.getToken(ctx)
	if err != nil {
		return err
	}

	if err := s.client.DescribeItem(ctx, token, s.path); err != nil {
		if isAkeylessNotFound(err) {
			return NotFoundError{Source: s.name, Key: s.path}
		}
		return fmt.Errorf("akeyless describe %s: %w", s.path, err)
	}
	return nil
}

// getToken returns a cached token or authenticates for a new one.
func (s *AkeylessSource) getToken(ctx context.Context) (string, error) {
	if token, ok := s.tokens.Get(); ok {
		return token, nil
	}

	token, ttl, err := s.client.Authenticate(ctx)
	if err != nil {
		return "", AuthError{Source: s.name, Message: err.Error()}
	}

	s.tokens.Set(token, ttl)
	return token, nil
}

// isAkeylessNotFound checks if an error indicates the item does not exist.
func isAkeylessNotFound(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "itemNotFound")
}

// NewAkeylessSourceFactory creates an Akeyless source factory.
func NewAkeylessSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewAkeylessSource(name, cfg)
}
