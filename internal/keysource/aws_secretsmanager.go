package keysource

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// SecretsManagerAPI defines the AWS Secrets Manager operations used by the
// source. This allows for mocking in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
}

// SecretsManagerSource reads key material from AWS Secrets Manager.
type SecretsManagerSource struct {
	name         string
	client       SecretsManagerAPI
	secretID     string
	versionID    string
	versionStage string
	encoding     string
	settings     awsSettings
}

// SecretsManagerOption is a functional option for configuring the source.
type SecretsManagerOption func(*SecretsManagerSource)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(s *SecretsManagerSource) {
		s.client = client
	}
}

// NewSecretsManagerSource creates an AWS Secrets Manager source from its
// configuration map.
func NewSecretsManagerSource(name string, cfg map[string]interface{}, opts ...SecretsManagerOption) (*SecretsManagerSource, error) {
	s := &SecretsManagerSource{
		name:     name,
		settings: parseAWSSettings(cfg),
	}

	if id, ok := cfg["secret_id"].(string); ok {
		s.secretID = id
	}
	if s.secretID == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".secret_id",
			Message:    "secret_id is required for the aws.secretsmanager source",
			Suggestion: "Set secret_id to the secret's name or ARN",
		}
	}

	if v, ok := cfg["version_id"].(string); ok {
		s.versionID = v
	}
	if v, ok := cfg["version_stage"].(string); ok {
		s.versionStage = v
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
		awsCfg, err := loadAWSConfig(context.Background(), s.settings)
		if err != nil {
			return nil, err
		}

		var clientOpts []func(*secretsmanager.Options)
		if s.settings.Endpoint != "" {
			endpoint := s.settings.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}

	return s, nil
}

// Name returns the key name.
func (s *SecretsManagerSource) Name() string {
	return s.name
}

// Material fetches the secret value and decodes it.
func (s *SecretsManagerSource) Material(ctx context.Context) (*secret.Secret, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	}
	if s.versionID != "" {
		input.VersionId = aws.String(s.versionID)
	}
	if s.versionStage != "" {
		input.VersionStage = aws.String(s.versionStage)
	}

	result, err := s.client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, s.mapError(err)
	}

	var data []byte
	switch {
	case result.SecretString != nil:
		data = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		data = result.SecretBinary
	default:
		return nil, fmt.Errorf("secret '%s' has no value", s.secretID)
	}

	material, err := decodeMaterial(data, s.encoding)
	if err != nil {
		return nil, fmt.Errorf("secret '%s': %w", s.secretID, err)
	}

	return secret.New(material)
}

// Validate checks that the configured secret exists and is visible without
// fetching its value.
func (s *SecretsManagerSource) Validate(ctx context.Context) error {
	input := &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(s.secretID),
	}

	if _, err := s.client.DescribeSecret(ctx, input); err != nil {
		return s.mapError(err)
	}
	return nil
}

// mapError converts AWS errors to source errors.
func (s *SecretsManagerSource) mapError(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return NotFoundError{Source: s.name, Key: s.secretID}
	}
	if isAWSAuthError(err) {
		return AuthError{Source: s.name, Message: err.Error()}
	}
	return fmt.Errorf("aws secrets manager: %w", err)
}

// NewSecretsManagerSourceFactory creates an AWS Secrets Manager source factory.
func NewSecretsManagerSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewSecretsManagerSource(name, cfg)
}
