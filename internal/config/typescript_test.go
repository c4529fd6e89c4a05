package config

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/conneroisu/kiln/internal/errors"
)

func TestValidateTypedProjectSetup(t *testing.T) {
	t.Run("plain javascript project is left alone", func(t *testing.T) {
		store, fs, _ := newTestStore(t, "/proj", nil)

		created, err := store.ValidateTypedProjectSetup(context.Background())
		require.NoError(t, err)
		assert.False(t, created)

		exists, err := afero.Exists(fs, "/proj/tsconfig.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing tsconfig is created", func(t *testing.T) {
		store, fs, _ := newTestStore(t, "/proj", map[string]string{
			"/proj/kiln.config.yaml": "typescript: true\nsourceDir: app\noutputDir: build\n",
		})
		_, err := store.Parse(context.Background(), ParseOptions{})
		require.NoError(t, err)

		created, err := store.ValidateTypedProjectSetup(context.Background())
		require.NoError(t, err)
		assert.True(t, created)

		data, err := afero.ReadFile(fs, "/proj/tsconfig.json")
		require.NoError(t, err)

		var tsconfig map[string]any
		require.NoError(t, json.Unmarshal(data, &tsconfig))
		assert.Equal(t, []any{"app"}, tsconfig["include"])

		options, ok := tsconfig["compilerOptions"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "build", options["outDir"])
		assert.Equal(t, true, options["strict"])

		underSource, err := afero.Exists(fs, "/proj/app/tsconfig.json")
		require.NoError(t, err)
		assert.False(t, underSource, "the file belongs at the project root, not the source root")

		created, err = store.ValidateTypedProjectSetup(context.Background())
		require.NoError(t, err)
		assert.False(t, created, "second call finds the file")
	})

	t.Run("existing tsconfig is not inspected", func(t *testing.T) {
		store, fs, _ := newTestStore(t, "/proj", map[string]string{
			"/proj/tsconfig.json": "not even json",
		})
		require.NoError(t, store.Merge(map[string]any{"typescript": true}))

		created, err := store.ValidateTypedProjectSetup(context.Background())
		require.NoError(t, err)
		assert.False(t, created)

		data, err := afero.ReadFile(fs, "/proj/tsconfig.json")
		require.NoError(t, err)
		assert.Equal(t, "not even json", string(data))
	})

	t.Run("write failure is an io error", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, base.MkdirAll("/proj", 0o755))
		t.Setenv("KILN_TEST_TS_READONLY", "")

		store, err := NewStore(
			WithFs(afero.NewReadOnlyFs(base)),
			WithWorkingDir("/proj"),
			WithEnvVar("KILN_TEST_TS_READONLY"),
		)
		require.NoError(t, err)
		require.NoError(t, store.Merge(map[string]any{"typescript": true}))

		created, err := store.ValidateTypedProjectSetup(context.Background())
		require.Error(t, err)
		assert.False(t, created)
		assert.True(t, kerrors.IsIOError(err))
		assert.False(t, kerrors.IsRecoverable(err))
	})
}
