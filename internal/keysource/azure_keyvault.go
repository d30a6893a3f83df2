package keysource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/pkg/secret"
)

// KeyVaultAPI defines the Azure Key Vault operations used by the source.
// This allows for mocking in tests.
type KeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultSource reads key material from Azure Key Vault.
type AzureKeyVaultSource struct {
	name          string
	client        KeyVaultAPI
	vaultURL      string
	secretName    string
	secretVersion string
	encoding      string
}

// azureCredentials holds the authentication settings for Key Vault.
type azureCredentials struct {
	TenantID           string
	ClientID           string
	ClientSecret       string
	UseManagedIdentity bool
	UserAssignedID     string
}

// AzureOption is a functional option for configuring the source.
type AzureOption func(*AzureKeyVaultSource)

// WithKeyVaultClient sets a custom Key Vault client (for testing).
func WithKeyVaultClient(client KeyVaultAPI) AzureOption {
	return func(s *AzureKeyVaultSource) {
		s.client = client
	}
}

// NewAzureKeyVaultSource creates an Azure Key Vault source from its
// configuration map.
func NewAzureKeyVaultSource(name string, cfg map[string]interface{}, opts ...AzureOption) (*AzureKeyVaultSource, error) {
	s := &AzureKeyVaultSource{name: name}

	if vaultURL, ok := cfg["vault_url"].(string); ok {
		s.vaultURL = vaultURL
	}
	if s.vaultURL == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".vault_url",
			Message:    "vault_url is required for the azure.keyvault source",
			Suggestion: "Provide the Key Vault URL, for example https://my-vault.vault.azure.net/",
		}
	}
	if _, err := url.Parse(s.vaultURL); err != nil {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".vault_url",
			Value:      s.vaultURL,
			Message:    "invalid vault_url format",
			Suggestion: "Use the form https://<vault-name>.vault.azure.net/",
		}
	}

	if secretName, ok := cfg["secret_name"].(string); ok {
		s.secretName = secretName
	}
	if s.secretName == "" {
		return nil, hlerrors.ConfigError{
			Field:      "keys." + name + ".secret_name",
			Message:    "secret_name is required for the azure.keyvault source",
			Suggestion: "Name the Key Vault secret that holds the key material",
		}
	}

	if version, ok := cfg["secret_version"].(string); ok {
		s.secretVersion = version
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
		client, err := newKeyVaultClient(s.vaultURL, parseAzureCredentials(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Key Vault client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

// parseAzureCredentials reads the authentication settings from a source
// config map.
func parseAzureCredentials(cfg map[string]interface{}) azureCredentials {
	var c azureCredentials

	if tenantID, ok := cfg["tenant_id"].(string); ok {
		c.TenantID = tenantID
	}
	if clientID, ok := cfg["client_id"].(string); ok {
		c.ClientID = clientID
	}
	if clientSecret, ok := cfg["client_secret"].(string); ok {
		c.ClientSecret = clientSecret
	}
	if useMI, ok := cfg["use_managed_identity"].(bool); ok {
		c.UseManagedIdentity = useMI
	}
	if userAssignedID, ok := cfg["user_assigned_identity_id"].(string); ok {
		c.UserAssignedID = userAssignedID
	}

	return c
}

// newKeyVaultClient builds the real Key Vault client. Service principal
// credentials win when set; an explicit managed identity comes next; the
// default credential chain (Azure CLI, environment, managed identity)
// covers the rest.
func newKeyVaultClient(vaultURL string, creds azureCredentials) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error

	switch {
	case creds.ClientSecret != "":
		cred, err = azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret, nil)
	case creds.UseManagedIdentity && creds.UserAssignedID != "":
		cred, err = azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(creds.UserAssignedID),
		})
	case creds.UseManagedIdentity:
		cred, err = azidentity.NewManagedIdentityCredential(nil)
	default:
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return azsecrets.NewClient(vaultURL, cred, nil)
}

// Name returns the key name.
func (s *AzureKeyVaultSource) Name() string {
	return s.name
}

// Material fetches the Key Vault secret and decodes it.
func (s *AzureKeyVaultSource) Material(ctx context.Context) (*secret.Secret, error) {
	resp, err := s.client.GetSecret(ctx, s.secretName, s.secretVersion, nil)
	if err != nil {
		return nil, s.mapError(err)
	}

	if resp.Value == nil {
		return nil, fmt.Errorf("secret '%s' has no value", s.secretName)
	}

	material, err := decodeMaterial([]byte(*resp.Value), s.encoding)
	if err != nil {
		return nil, fmt.Errorf("secret '%s': %w", s.secretName, err)
	}

	return secret.New(material)
}

// Validate checks that the configured secret exists and is readable.
// Key Vault has no cheaper metadata call for a single named secret.
func (s *AzureKeyVaultSource) Validate(ctx context.Context) error {
	if _, err := s.client.GetSecret(ctx, s.secretName, s.secretVersion, nil); err != nil {
		return s.mapError(err)
	}
	return nil
}

// mapError converts Azure SDK errors to source errors.
func (s *AzureKeyVaultSource) mapError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 404:
			return NotFoundError{Source: s.name, Key: s.secretName}
		case 401, 403:
			return AuthError{Source: s.name, Message: err.Error()}
		}
	}

	// Credential chain failures surface before any HTTP response.
	errStr := err.Error()
	if strings.Contains(errStr, "DefaultAzureCredential") ||
		strings.Contains(errStr, "failed to acquire a token") {
		return AuthError{Source: s.name, Message: errStr}
	}

	return fmt.Errorf("azure key vault: %w", err)
}

// NewAzureKeyVaultSourceFactory creates an Azure Key Vault source factory.
func NewAzureKeyVaultSourceFactory(name string, cfg map[string]interface{}) (Source, error) {
	return NewAzureKeyVaultSource(name, cfg)
}
