package keysource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// SecretManagerAPI defines the GCP Secret Manager operations used by the
// source. *secretmanager.Client satisfies it; tests provide fakes.
type SecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
}

// GCPSecretManagerSource reads key material from Google Cloud Secret Manager.
type GCPSecretManagerSource struct {
	name      string
	client    SecretManagerAPI
	projectID string
	secretID  string
	version   string
	encoding  string
}

// GCPOption is a functional option for configuring the source.
type GCPOption func(*GCPSecretManagerSource)

// WithSecretManagerClient sets a custom Secret Manager client (for testing).
func WithSecretManagerClient(client SecretManagerAPI) GCPOption {
	return func(s *GCPSecretManagerSource) {
		s.client = client
	}
}

// NewGCPSecretManagerSource creates a GCP Secret Manager source from its
// configuration map.
func NewGCPSecretManagerSource(name string, cfg map[string]interface{}, opts ...GCPOption) (*GCPSecretManagerSource, error) {
	s := &GCPSecretManagerSource{
		name:    name,
		version: "latest",
	}

	if secretID, ok := cfg["secret"].(string); ok {
		s.secretID = secretID
	}
	if s.secretID == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".secret",
			Message:    "secret is required for the gcp.secretmanager source",
			Suggestion: "Set secret to the secret name or full projects/<project>/secrets/<name> resource",
		}
	}

	if projectID, ok := cfg["project_id"].(string); ok {
		s.projectID = projectID
	}
	if s.projectID == "" && !strings.HasPrefix(s.secretID, "projects/") {
		if projectID := gcpProjectFromEnv(); projectID != "" {
			s.projectID = projectID
		} else {
			return nil, hlerrors.ConfigError{
				Field:      "keys." + name + ".project_id",
				Message:    "project_id is required for the gcp.secretmanager source",
				Suggestion: "Set project_id in the key config or the GOOGLE_CLOUD_PROJECT environment variable",
			}
		}
	}

	if version, ok := cfg["version"].(string); ok && version != "" {
		s.version = version
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
		client, err := newGCPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

// newGCPClient builds the real Secret Manager client, honoring an optional
// service account key file.
func newGCPClient(cfg map[string]interface{}) (*secretmanager.Client, error) {
	var clientOptions []option.ClientOption

	if keyPath, ok := cfg["service_account_key_path"].(string); ok && keyPath != "" {
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	return secretmanager.NewClient(context.Background(), clientOptions...)
}

// gcpProjectFromEnv checks the common project ID environment variables.
func gcpProjectFromEnv() string {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if projectID := os.Getenv(key); projectID != "" {
			return projectID
		}
	}
	return ""
}

// Name returns the key name.
func (s *GCPSecretManagerSource) Name() string {
	return s.name
}

// Material fetches the secret version payload and decodes it.
func (s *GCPSecretManagerSource) Material(ctx context.Context) (*secret.Secret, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.versionResource(),
	}

	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	if result.Payload == nil || len(result.Payload.Data) == 0 {
		return nil, fmt.Errorf("secret '%s' has no data", s.secretID)
	}

	material, err := decodeMaterial(result.Payload.Data, s.encoding)
	if err != nil {
		return nil, fmt.Errorf("secret '%s': %w", s.secretID, err)
	}

	return secret.New(material)
}

// Validate checks that the configured secret exists without fetching a
// payload.
func (s *GCPSecretManagerSource) Validate(ctx context.Context) error {
	req := &secretmanagerpb.GetSecretRequest{
		Name: s.secretResource(),
	}

	if _, err := s.client.GetSecret(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

// secretResource builds the projects/<p>/secrets/<s> resource name.
func (s *GCPSecretManagerSource) secretResource() string {
	if strings.HasPrefix(s.secretID, "projects/") {
		return s.secretID
	}
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID)
}

// versionResource builds the full versioned resource name.
func (s *GCPSecretManagerSource) versionResource() string {
	base := s.secretResource()
	if strings.Contains(base, "/versions/") {
		return base
	}
	return fmt.Sprintf("%s/versions/%s", base, s.version)
}

// mapError converts gRPC status errors to source errors.
func (s *GCPSecretManagerSource) mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return NotFoundError{Source: s.name, Key: s.secretID}
	case codes.PermissionDenied, codes.Unauthenticated:
		return AuthError{Source: s.name, Message: err.Error()}
	default:
		return fmt.Errorf("gcp secret manager: %w", err)
	}
}

// NewGCPSecretManagerSourceFactory creates a GCP Secret Manager source factory.
func NewGCPSecretManagerSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewGCPSecretManagerSource(name, cfg)
}
