package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroOr(t *testing.T) {
	assert.Equal(t, 1, ZeroOr(0, 1))
	assert.Equal(t, "a", ZeroOr("a", "b"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		path, want string
	}{
		{"~/.config/embedjs", filepath.Join(home, ".config/embedjs")},
		{"~", home},
		{"./scripts", filepath.Join(cwd, "scripts")},
		{".", cwd},
		{"/tmp/a.js", "/tmp/a.js"},
		{".hidden", ".hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ExpandPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYaml(t *testing.T) {
	type value struct {
		Name string `yaml:"name"`
		Size int    `yaml:"size"`
	}
	path := filepath.Join(t.TempDir(), "sub", "value.yml")

	require.NoError(t, WriteYaml(path, value{Name: "rand", Size: 624}))
	got, err := ReadYaml[value](path)
	require.NoError(t, err)
	assert.Equal(t, value{Name: "rand", Size: 624}, *got)

	_, err = ReadYaml[value](filepath.Join(t.TempDir(), "none.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
