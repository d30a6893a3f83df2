package keysource_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlerrors "github.com/systmms/halyard/internal/errors"
	"github.com/systmms/halyard/internal/keysource"
)

func TestLiteralSourceMaterial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     map[string]interface{}
		want    string
		wantErr string
	}{
		{
			name: "raw_value",
			cfg:  map[string]interface{}{"value": "inline-key"},
			want: "inline-key",
		},
		{
			name: "base64_value",
			cfg:  map[string]interface{}{"value": "a2V5LW1hdGVyaWFs", "encoding": "base64"},
			want: "key-material",
		},
		{
			name:    "invalid_base64_value",
			cfg:     map[string]interface{}{"value": "not!!base64", "encoding": "base64"},
			wantErr: "invalid base64",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := keysource.NewLiteralSource("demo", tt.cfg)
			require.NoError(t, err)

			if tt.wantErr != "" {
				_, err := src.Material(context.Background())
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			assert.Equal(t, tt.want, materialString(t, src))
			assert.NoError(t, src.Validate(context.Background()))
		})
	}
}

func TestLiteralSourceMissingValue(t *testing.T) {
	t.Parallel()

	_, err := keysource.NewLiteralSource("demo", map[string]interface{}{})

	var cfgErr hlerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "keys.demo.value", cfgErr.Field)
}

func TestMockSourceMaterial(t *testing.T) {
	t.Parallel()

	src := keysource.NewMockSource("demo", []byte("mock material"))

	assert.Equal(t, "demo", src.Name())
	assert.Equal(t, "mock material", materialString(t, src))

	// The source keeps its own copy, so it can be read repeatedly.
	assert.Equal(t, "mock material", materialString(t, src))
}

func TestMockSourceEmptyMaterial(t *testing.T) {
	t.Parallel()

	src := keysource.NewMockSource("demo", nil)

	_, err := src.Material(context.Background())

	var notFound keysource.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMockSourceError(t *testing.T) {
	t.Parallel()

	src := keysource.NewMockSource("demo", []byte("material"))
	boom := errors.New("injected failure")
	src.SetError(boom)

	_, err := src.Material(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, src.Validate(context.Background()), boom)
}

func TestMockSourceDelayHonorsContext(t *testing.T) {
	t.Parallel()

	src := keysource.NewMockSource("demo", []byte("material"))
	src.SetDelay(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := src.Material(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockSourceFactory(t *testing.T) {
	t.Parallel()

	t.Run("default_material", func(t *testing.T) {
		t.Parallel()

		src, err := keysource.NewMockSourceFactory("demo", map[string]interface{}{})
		require.NoError(t, err)

		assert.Equal(t, "mock-key-material", materialString(t, src))
	})

	t.Run("configured_material", func(t *testing.T) {
		t.Parallel()

		src, err := keysource.NewMockSourceFactory("demo", map[string]interface{}{
			"material": "custom",
		})
		require.NoError(t, err)

		assert.Equal(t, "custom", materialString(t, src))
	})
}
