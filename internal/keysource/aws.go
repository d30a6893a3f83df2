package keysource

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// awsSettings holds the configuration shared by the AWS sources.
type awsSettings struct {
	Region          string
	Profile         string
	RoleARN         string
	Endpoint        string // LocalStack or testing
	AccessKeyID     string // static credentials for testing
	SecretAccessKey string
}

// parseAWSSettings reads the shared AWS settings from a source config map.
func parseAWSSettings(cfg map[string]interface{}) awsSettings {
	var s awsSettings

	if region, ok := cfg["region"].(string); ok {
		s.Region = region
	}
	if profile, ok := cfg["profile"].(string); ok {
		s.Profile = profile
	}
	if role, ok := cfg["role_arn"].(string); ok {
		s.RoleARN = role
	}
	if endpoint, ok := cfg["endpoint"].(string); ok {
		s.Endpoint = endpoint
	}
	if ak, ok := cfg["access_key_id"].(string); ok {
		s.AccessKeyID = ak
	}
	if sk, ok := cfg["secret_access_key"].(string); ok {
		s.SecretAccessKey = sk
	}

	return s
}

// loadAWSConfig builds an aws.Config from the shared settings, assuming
// role_arn via STS when set.
func loadAWSConfig(ctx context.Context, s awsSettings) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error

	if s.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(s.Region))
	}
	if s.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(s.Profile))
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if s.RoleARN != "" {
		stsClient := sts.NewFromConfig(cfg)
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(stsClient, s.RoleARN),
		)
	}

	return cfg, nil
}

// isAWSAuthError checks for common auth-related errors by string matching.
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}
