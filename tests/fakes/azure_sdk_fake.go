package fakes

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/halyard/internal/keysource"
)

// FakeAzureKeyVaultClient is a mock implementation of keysource.KeyVaultAPI
type FakeAzureKeyVaultClient struct {
	// Secrets maps secret names to their data
	Secrets map[string]*AzureSecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// GetSecretFunc allows custom behavior for GetSecret
	GetSecretFunc func(ctx context.Context, name string, version string) (azsecrets.GetSecretResponse, error)
}

// AzureSecretData holds the data for a mock Azure Key Vault secret
type AzureSecretData struct {
	Value      *string
	ID         *string
	Attributes *azsecrets.SecretAttributes
	// Version-specific data
	Versions map[string]*AzureSecretVersion
}

// AzureSecretVersion holds version-specific data for a secret
type AzureSecretVersion struct {
	Value      *string
	Attributes *azsecrets.SecretAttributes
}

// NewFakeAzureKeyVaultClient creates a new mock Azure Key Vault client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*AzureSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	now := time.Now()
	f.Secrets[name] = &AzureSecretData{
		Value: to.Ptr(value),
		ID:    to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s", name)),
		Attributes: &azsecrets.SecretAttributes{
			Enabled: to.Ptr(true),
			Created: &now,
			Updated: &now,
		},
		Versions: make(map[string]*AzureSecretVersion),
	}
}

// AddSecretWithVersion adds a secret with a specific version
func (f *FakeAzureKeyVaultClient) AddSecretWithVersion(name, value, version string) {
	now := time.Now()

	if _, exists := f.Secrets[name]; !exists {
		f.AddSecretString(name, value)
	}

	f.Secrets[name].Versions[version] = &AzureSecretVersion{
		Value: to.Ptr(value),
		Attributes: &azsecrets.SecretAttributes{
			Enabled: to.Ptr(true),
			Created: &now,
			Updated: &now,
		},
	}
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetSecret mocks the GetSecret operation
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, name, version)
	}

	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
	}

	if version != "" {
		versionData, versionExists := data.Versions[version]
		if !versionExists {
			return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
		}

		return azsecrets.GetSecretResponse{
			Secret: azsecrets.Secret{
				ID:         (*azsecrets.ID)(to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s/%s", name, version))),
				Value:      versionData.Value,
				Attributes: versionData.Attributes,
			},
		}, nil
	}

	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:         (*azsecrets.ID)(data.ID),
			Value:      data.Value,
			Attributes: data.Attributes,
		},
	}, nil
}

// AzureNotFoundError creates a mock Azure not found error
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: 404,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates a mock Azure forbidden error
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: 403,
		ErrorCode:  "Forbidden",
	}
}

// AzureUnauthorizedError creates a mock Azure unauthorized error
func AzureUnauthorizedError() error {
	return &azcore.ResponseError{
		StatusCode: 401,
		ErrorCode:  "Unauthorized",
	}
}

// Ensure the fake satisfies the client interface it stands in for
var _ keysource.KeyVaultAPI = (*FakeAzureKeyVaultClient)(nil)
