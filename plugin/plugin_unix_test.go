//go:build unix

package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shiroyk/embedjs/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a plugin"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.so"), 0o755))

		size, err := LoadDir(dir)
		assert.NoError(t, err)
		assert.Zero(t, size)
	})

	t.Run("not exists", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "none"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid plugin", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.so"), []byte("garbage"), 0o644))

		size, err := LoadDir(dir)
		assert.Zero(t, size)
		assert.ErrorContains(t, err, "error opening broken.so")
		_, ok := modules.Get("broken")
		assert.False(t, ok)
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "missing.so"), "missing")
	assert.Error(t, err)
}
