package source_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/reglet-dev/reglet-scripthost/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_UnitsSortedAndFlat(t *testing.T) {
	src := source.NewFS(fstest.MapFS{
		"b.lua":        {Data: []byte("")},
		"a.lua":        {Data: []byte("")},
		"B.lua":        {Data: []byte("")},
		"notes.txt":    {Data: []byte("")},
		"sub/c.lua":    {Data: []byte("")},
		"dir.lua/x.md": {Data: []byte("")},
		"script.lua~":  {Data: []byte("")},
	})

	units, err := src.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"B.lua", "a.lua", "b.lua"}, units)
}

func TestSource_EmptyRoot(t *testing.T) {
	units, err := source.NewFS(fstest.MapFS{}).Units()
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestSource_EnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts", "nested")
	src := source.New(dir)

	require.NoError(t, src.EnsureDir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, src.Dir())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte("x = 1"), 0o644))
	units, err := src.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.lua"}, units)

	assert.NoError(t, source.NewFS(fstest.MapFS{}).EnsureDir())
}
