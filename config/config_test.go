package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/reglet-scripthost/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "./scripts", c.Scripts.Root)
	assert.True(t, c.Scripts.Watch)
	assert.True(t, c.UI.ShowOnStart)
	assert.Equal(t, 30, c.UI.FrameRate)
	assert.Equal(t, filepath.Join(config.Dir(), "layout.yaml"), c.UI.LayoutFile)
	assert.Equal(t, "standard", c.Security.Level)
	assert.Equal(t, filepath.Join(config.Dir(), "grants.yaml"), c.Security.GrantsFile)
	assert.Empty(t, c.Security.Facilities)
	assert.False(t, c.Security.TrustAll)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Empty(t, c.Log.File)

	assert.Equal(t, c, config.Default())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scripts:
  root: /srv/scripts
  watch: false
ui:
  layout_file: ~/layouts.yaml
  frame_rate: 60
security:
  level: strict
  facilities: [spawn]
log:
  level: debug
`), 0o600))
	t.Setenv("SCRIPTHOST_LOG_FORMAT", "json")
	t.Setenv("SCRIPTHOST_SECURITY_TRUST_ALL", "true")

	c, err := config.Load(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, "/srv/scripts", c.Scripts.Root)
	assert.False(t, c.Scripts.Watch)
	assert.Equal(t, filepath.Join(home, "layouts.yaml"), c.UI.LayoutFile)
	assert.Equal(t, 60, c.UI.FrameRate)
	assert.Equal(t, "strict", c.Security.Level)
	assert.Equal(t, []string{"spawn"}, c.Security.Facilities)
	assert.True(t, c.Security.TrustAll)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scripts: [unterminated"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := config.Default()
	c.UI.ShowOnStart = false
	c.Security.Facilities = []string{"spawn"}
	require.NoError(t, config.Save(path, c))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "x.yaml"), config.ExpandHome("~/x.yaml"))
	assert.Equal(t, home, config.ExpandHome("~"))
	assert.Equal(t, "/abs/x", config.ExpandHome("/abs/x"))
	assert.Equal(t, "~user/x", config.ExpandHome("~user/x"))
}
