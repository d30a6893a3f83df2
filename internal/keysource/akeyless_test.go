package keysource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/keysource"
	"github.com/systmms/halyard/tests/fakes"
)

func TestAkeylessSourceMaterial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       map[string]interface{}
		setupFake func(*fakes.FakeAkeylessClient)
		want      string
		wantErr   string
	}{
		{
			name: "simple_path",
			cfg:  map[string]interface{}{"path": "/prod/halyard/signing-key"},
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.SetSecret("/prod/halyard/signing-key", "akeyless material")
			},
			want: "akeyless material",
		},
		{
			name: "path_without_leading_slash",
			cfg:  map[string]interface{}{"path": "prod/halyard/signing-key"},
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.SetSecret("/prod/halyard/signing-key", "normalized")
			},
			want: "normalized",
		},
		{
			name: "hex_item",
			cfg: map[string]interface{}{
				"path":     "/prod/halyard/signing-key",
				"encoding": "hex",
			},
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.SetSecret("/prod/halyard/signing-key", "6b65792d6d6174657269616c")
			},
			want: "key-material",
		},
		{
			name:    "not_found",
			cfg:     map[string]interface{}{"path": "/prod/absent"},
			wantErr: "key material not found",
		},
		{
			name: "auth_failure",
			cfg:  map[string]interface{}{"path": "/prod/halyard/signing-key"},
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.AuthErr = fakes.ErrFakeAkeylessUnauthorized
			},
			wantErr: "authentication failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fakeClient := fakes.NewFakeAkeylessClient()
			if tt.setupFake != nil {
				tt.setupFake(fakeClient)
			}

			src, err := keysource.NewAkeylessSource("signing", tt.cfg,
				keysource.WithAkeylessClient(fakeClient))
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

func TestAkeylessSourceCachesToken(t *testing.T) {
	t.Parallel()

	fakeClient := fakes.NewFakeAkeylessClient()
	fakeClient.SetSecret("/prod/halyard/signing-key", "material")

	src, err := keysource.NewAkeylessSource("signing", map[string]interface{}{
		"path": "/prod/halyard/signing-key",
	}, keysource.WithAkeylessClient(fakeClient))
	require.NoError(t, err)

	assert.Equal(t, "material", materialString(t, src))
	assert.Equal(t, "material", materialString(t, src))

	assert.Equal(t, 1, fakeClient.AuthCallCount, "token must be reused across fetches")
	assert.Equal(t, 2, fakeClient.GetCallCount)
}

func TestAkeylessSourceMissingPath(t *testing.T) {
	t.Parallel()

	_, err := keysource.NewAkeylessSource("signing", map[string]interface{}{},
		keysource.WithAkeylessClient(fakes.NewFakeAkeylessClient()))

	var cfgErr hlerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "keys.signing.path", cfgErr.Field)
}

func TestAkeylessSourceValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupFake func(*fakes.FakeAkeylessClient)
		wantErr   string
	}{
		{
			name: "ok",
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.SetSecret("/prod/halyard/signing-key", "material")
			},
		},
		{
			name:    "not_found",
			wantErr: "key material not found",
		},
		{
			name: "describe_failure",
			setupFake: func(f *fakes.FakeAkeylessClient) {
				f.SetSecret("/prod/halyard/signing-key", "material")
				f.DescribeErr = assert.AnError
			},
			wantErr: "akeyless describe",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fakeClient := fakes.NewFakeAkeylessClient()
			if tt.setupFake != nil {
				tt.setupFake(fakeClient)
			}

			src, err := keysource.NewAkeylessSource("signing", map[string]interface{}{
				"path": "/prod/halyard/signing-key",
			}, keysource.WithAkeylessClient(fakeClient))
			require.NoError(t, err)

			err = src.Validate(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
