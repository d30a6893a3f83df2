package fakes

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/systmms/halyard/internal/keysource"
)

// FakeGCPSecretManagerClient is a mock implementation of
// keysource.SecretManagerAPI
type FakeGCPSecretManagerClient struct {
	// Secrets maps full resource names (projects/X/secrets/Y) to their data
	Secrets map[string]*GCPSecretData
	// Versions maps version resource names (projects/X/secrets/Y/versions/Z) to their data
	Versions map[string]*GCPSecretVersionData
	// Errors maps resource names to errors to return
	Errors map[string]error
	// AccessSecretVersionFunc allows custom behavior for AccessSecretVersion
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
	// GetSecretFunc allows custom behavior for GetSecret
	GetSecretFunc func(ctx context.Context, req *secretmanagerpb.GetSecretRequest) (*secretmanagerpb.Secret, error)
}

// GCPSecretData holds the data for a mock GCP secret
type GCPSecretData struct {
	Name       string
	CreateTime *timestamppb.Timestamp
	Labels     map[string]string
}

// GCPSecretVersionData holds version-specific data for a GCP secret
type GCPSecretVersionData struct {
	Name       string
	State      secretmanagerpb.SecretVersion_State
	CreateTime *timestamppb.Timestamp
	Data       []byte
}

// NewFakeGCPSecretManagerClient creates a new mock GCP Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Secrets:  make(map[string]*GCPSecretData),
		Versions: make(map[string]*GCPSecretVersionData),
		Errors:   make(map[string]error),
	}
}

// AddSecretVersion adds a secret version to the mock client, creating the
// parent secret if needed
func (f *FakeGCPSecretManagerClient) AddSecretVersion(projectID, secretName, version string, value []byte) {
	secretFullName := fmt.Sprintf("projects/%s/secrets/%s", projectID, secretName)
	if _, exists := f.Secrets[secretFullName]; !exists {
		f.Secrets[secretFullName] = &GCPSecretData{
			Name:       secretFullName,
			CreateTime: timestamppb.New(time.Now()),
			Labels:     make(map[string]string),
		}
	}

	versionFullName := fmt.Sprintf("%s/versions/%s", secretFullName, version)
	f.Versions[versionFullName] = &GCPSecretVersionData{
		Name:       versionFullName,
		State:      secretmanagerpb.SecretVersion_ENABLED,
		CreateTime: timestamppb.New(time.Now()),
		Data:       value,
	}
}

// AddSecretString adds a string secret reachable as both "latest" and "1"
func (f *FakeGCPSecretManagerClient) AddSecretString(projectID, secretName, value string) {
	f.AddSecretVersion(projectID, secretName, "latest", []byte(value))
	f.AddSecretVersion(projectID, secretName, "1", []byte(value))
}

// AddError configures the mock to return an error for a specific resource
func (f *FakeGCPSecretManagerClient) AddError(resourceName string, err error) {
	f.Errors[resourceName] = err
}

// AccessSecretVersion mocks the AccessSecretVersion operation
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	if f.AccessSecretVersionFunc != nil {
		return f.AccessSecretVersionFunc(ctx, req)
	}

	if err, exists := f.Errors[req.Name]; exists {
		return nil, err
	}

	version, exists := f.Versions[req.Name]
	if !exists {
		return nil, status.Errorf(codes.NotFound, "Secret version %s not found", req.Name)
	}
	if version.State != secretmanagerpb.SecretVersion_ENABLED {
		return nil, status.Errorf(codes.FailedPrecondition, "Secret version %s is not enabled", req.Name)
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: version.Name,
		Payload: &secretmanagerpb.SecretPayload{
			Data: version.Data,
		},
	}, nil
}

// GetSecret mocks the GetSecret operation
func (f *FakeGCPSecretManagerClient) GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, req)
	}

	if err, exists := f.Errors[req.Name]; exists {
		return nil, err
	}

	data, exists := f.Secrets[req.Name]
	if !exists {
		return nil, status.Errorf(codes.NotFound, "Secret %s not found", req.Name)
	}

	return &secretmanagerpb.Secret{
		Name:       data.Name,
		CreateTime: data.CreateTime,
		Labels:     data.Labels,
	}, nil
}

// GCP error helpers

// GCPNotFoundError creates a mock GCP not found error
func GCPNotFoundError(resourceName string) error {
	return status.Errorf(codes.NotFound, "Resource %s not found", resourceName)
}

// GCPPermissionDeniedError creates a mock GCP permission denied error
func GCPPermissionDeniedError(message string) error {
	return status.Error(codes.PermissionDenied, message)
}

// GCPUnauthenticatedError creates a mock GCP unauthenticated error
func GCPUnauthenticatedError(message string) error {
	return status.Error(codes.Unauthenticated, message)
}

// Ensure the fake satisfies the client interface it stands in for
var _ keysource.SecretManagerAPI = (*FakeGCPSecretManagerClient)(nil)
