package keysource

import (
	"context"
	"fmt"
	"time"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"
)

// akeylessSDKClient implements AkeylessAPI using the official SDK with API
// key authentication.
type akeylessSDKClient struct {
	apiClient *akeyless.APIClient
	creds     akeylessCredentials
}

func newAkeylessSDKClient(creds akeylessCredentials) (*akeylessSDKClient, error) {
	configuration := akeyless.NewConfiguration()
	configuration.Servers = []akeyless.ServerConfiguration{
		{URL: creds.GatewayURL},
	}

	return &akeylessSDKClient{
		apiClient: akeyless.NewAPIClient(configuration),
		creds:     creds,
	}, nil
}

// Authenticate obtains an access token using the configured API key.
func (c *akeylessSDKClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	authBody := akeyless.NewAuthWithDefaults()
	authBody.SetAccessId(c.creds.AccessID)
	authBody.SetAccessKey(c.creds.AccessKey)

	authRes, _, err := c.apiClient.V2Api.Auth(ctx).Body(*authBody).Execute()
	if err != nil {
		return "", 0, fmt.Errorf("api key authentication failed: %w", err)
	}

	// Akeyless tokens last about 30 minutes; budget 25 so callers refresh
	// before expiry.
	return authRes.GetToken(), 25 * time.Minute, nil
}

// GetSecret retrieves a secret value by path.
func (c *akeylessSDKClient) GetSecret(ctx context.Context, token, path string, version *int) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)
	if version != nil {
		body.SetVersion(int32(*version))
	}

	res, _, err := c.apiClient.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}

	// The response maps path -> value.
	value, ok := res[path]
	if !ok {
		return "", fmt.Errorf("item %s not found", path)
	}
	return value, nil
}

// DescribeItem checks that an item exists and is visible to the token.
func (c *akeylessSDKClient) DescribeItem(ctx context.Context, token, path string) error {
	body := akeyless.NewDescribeItem(path)
	body.SetToken(token)

	_, _, err := c.apiClient.V2Api.DescribeItem(ctx).Body(*body).Execute()
	return err
}

var _ AkeylessAPI = (*akeylessSDKClient)(nil)
