package grantstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/capability/grantstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grants.yaml")
	store := grantstore.NewFileStore(grantstore.WithPath(path))
	assert.Equal(t, path, store.ConfigPath())

	empty, err := store.Load()
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	require.NoError(t, store.Save(&capability.GrantSet{Facilities: []string{"spawn", "spawn"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "facilities:\n    - spawn\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"spawn"}, loaded.Facilities)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facilities: {"), 0o600))

	_, err := grantstore.NewFileStore(grantstore.WithPath(path)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse grant store")
}

func TestFileStore_UnknownFacility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facilities:\n    - spawn\n    - teleport\n"), 0o600))

	grants, err := grantstore.NewFileStore(grantstore.WithPath(path)).Load()
	require.Error(t, err)
	assert.Nil(t, grants)
	assert.Contains(t, err.Error(), `unknown facility "teleport"`)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".scripthost", "grants.yaml"), filepath.Join(filepath.Base(filepath.Dir(grantstore.DefaultPath())), "grants.yaml"))
}
