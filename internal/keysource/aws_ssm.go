package keysource

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// SSMAPI defines the AWS SSM Parameter Store operations used by the source.
// This allows for mocking in tests.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// SSMSource reads key material from AWS Systems Manager Parameter Store.
type SSMSource struct {
	name           string
	client         SSMAPI
	parameter      string
	withDecryption bool
	encoding       string
	settings       awsSettings
}

// SSMOption is a functional option for configuring the source.
type SSMOption func(*SSMSource)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMAPI) SSMOption {
	return func(s *SSMSource) {
		s.client = client
	}
}

// NewSSMSource creates an AWS SSM source from its configuration map.
func NewSSMSource(name string, cfg map[string]interface{}, opts ...SSMOption) (*SSMSource, error) {
	s := &SSMSource{
		name:           name,
		withDecryption: true, // SecureString parameters are the normal case
		settings:       parseAWSSettings(cfg),
	}

	if param, ok := cfg["parameter"].(string); ok {
		s.parameter = param
	}
	if s.parameter == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".parameter",
			Message:    "parameter is required for the aws.ssm source",
			Suggestion: "Set parameter to the parameter name, for example /halyard/prod/signing-key",
		}
	}

	if decrypt, ok := cfg["with_decryption"].(bool); ok {
		s.withDecryption = decrypt
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
		s.client = ssm.NewFromConfig(awsCfg)
	}

	return s, nil
}

// Name returns the key name.
func (s *SSMSource) Name() string {
	return s.name
}

// Material fetches the parameter value and decodes it.
func (s *SSMSource) Material(ctx context.Context) (*secret.Secret, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(s.parameter),
		WithDecryption: aws.Bool(s.withDecryption),
	}

	result, err := s.client.GetParameter(ctx, input)
	if err != nil {
		return nil, s.mapError(err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter '%s' has no value", s.parameter)
	}

	material, err := decodeMaterial([]byte(*result.Parameter.Value), s.encoding)
	if err != nil {
		return nil, fmt.Errorf("parameter '%s': %w", s.parameter, err)
	}

	return secret.New(material)
}

// Validate checks that the configured parameter exists without fetching its
// value.
func (s *SSMSource) Validate(ctx context.Context) error {
	input := &ssm.DescribeParametersInput{
		ParameterFilters: []types.ParameterStringFilter{
			{
				Key:    aws.String("Name"),
				Values: []string{s.parameter},
			},
		},
	}

	result, err := s.client.DescribeParameters(ctx, input)
	if err != nil {
		return s.mapError(err)
	}
	if len(result.Parameters) == 0 {
		return NotFoundError{Source: s.name, Key: s.parameter}
	}
	return nil
}

// mapError converts AWS errors to source errors.
func (s *SSMSource) mapError(err error) error {
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return NotFoundError{Source: s.name, Key: s.parameter}
	}
	if isAWSAuthError(err) {
		return AuthError{Source: s.name, Message: err.Error()}
	}
	return fmt.Errorf("aws ssm: %w", err)
}

// NewSSMSourceFactory creates an AWS SSM source factory.
func NewSSMSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewSSMSource(name, cfg)
}
