package keysource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/keysource"
	"github.com/systmms/halyard/tests/fakes"
)

func TestSecretsManagerSourceMaterial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       map[string]interface{}
		setupFake func(*fakes.FakeSecretsManagerClient)
		want      string
		wantErr   string
	}{
		{
			name: "string_secret",
			cfg:  map[string]interface{}{"secret_id": "prod/signing-key"},
			setupFake: func(f *fakes.FakeSecretsManagerClient) {
				f.AddSecretString("prod/signing-key", "aws material")
			},
			want: "aws material",
		},
		{
			name: "binary_secret",
			cfg:  map[string]interface{}{"secret_id": "prod/signing-key"},
			setupFake: func(f *fakes.FakeSecretsManagerClient) {
				f.AddSecretBinary("prod/signing-key", []byte{0x01, 0x02, 0x03})
			},
			want: "\x01\x02\x03",
		},
		{
			name: "base64_secret",
			cfg: map[string]interface{}{
				"secret_id": "prod/signing-key",
				"encoding":  "base64",
			},
			setupFake: func(f *fakes.FakeSecretsManagerClient) {
				f.AddSecretString("prod/signing-key", "a2V5LW1hdGVyaWFs")
			},
			want: "key-material",
		},
		{
			name:    "not_found",
			cfg:     map[string]interface{}{"secret_id": "prod/absent"},
			wantErr: "key material not found",
		},
		{
			name: "access_denied",
			cfg:  map[string]interface{}{"secret_id": "prod/signing-key"},
			setupFake: func(f *fakes.FakeSecretsManagerClient) {
				f.AddError("prod/signing-key", errors.New("api error AccessDenied: not authorized"))
			},
			wantErr: "authentication failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fakeClient := fakes.NewFakeSecretsManagerClient()
			if tt.setupFake != nil {
				tt.setupFake(fakeClient)
			}

			src, err := keysource.NewSecretsManagerSource("signing", tt.cfg,
				keysource.WithSecretsManagerClient(fakeClient))
			require.NoError(t, err)

			if tt.wantErr != "" {
				_, err := src.Material(context.Background())
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			assert.Equal(t, tt.want, materialString(t, src))
		})
	}
}

func TestSecretsManagerSourceVersionSelection(t *testing.T) {
	t.Parallel()

	fakeClient := fakes.NewFakeSecretsManagerClient()

	var gotInput *secretsmanager.GetSecretValueInput
	fakeClient.GetSecretValueFunc = func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
		gotInput = params
		return &secretsmanager.GetSecretValueOutput{
			SecretString: aws.String("pinned"),
		}, nil
	}

	src, err := keysource.NewSecretsManagerSource("signing", map[string]interface{}{
		"secret_id":     "prod/signing-key",
		"version_id":    "v2-def456",
		"version_stage": "AWSPREVIOUS",
	}, keysource.WithSecretsManagerClient(fakeClient))
	require.NoError(t, err)

	assert.Equal(t, "pinned", materialString(t, src))

	require.NotNil(t, gotInput)
	assert.Equal(t, "prod/signing-key", aws.ToString(gotInput.SecretId))
	assert.Equal(t, "v2-def456", aws.ToString(gotInput.VersionId))
	assert.Equal(t, "AWSPREVIOUS", aws.ToString(gotInput.VersionStage))
}

func TestSecretsManagerSourceMissingSecretID(t *testing.T) {
	t.Parallel()

	_, err := keysource.NewSecretsManagerSource("signing", map[string]interface{}{},
		keysource.WithSecretsManagerClient(fakes.NewFakeSecretsManagerClient()))

	var cfgErr hlerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "keys.signing.secret_id", cfgErr.Field)
}

func TestSecretsManagerSourceValidate(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		fakeClient := fakes.NewFakeSecretsManagerClient()
		fakeClient.AddSecretString("prod/signing-key", "material")

		src, err := keysource.NewSecretsManagerSource("signing", map[string]interface{}{
			"secret_id": "prod/signing-key",
		}, keysource.WithSecretsManagerClient(fakeClient))
		require.NoError(t, err)

		assert.NoError(t, src.Validate(context.Background()))
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		src, err := keysource.NewSecretsManagerSource("signing", map[string]interface{}{
			"secret_id": "prod/absent",
		}, keysource.WithSecretsManagerClient(fakes.NewFakeSecretsManagerClient()))
		require.NoError(t, err)

		var notFound keysource.NotFoundError
		require.ErrorAs(t, src.Validate(context.Background()), &notFound)
		assert.Equal(t, "prod/absent", notFound.Key)
	})
}
