// Package config loads host settings from defaults, an optional YAML file
// and SCRIPTHOST_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCRIPTHOST_SCRIPTS_ROOT.
const EnvPrefix = "SCRIPTHOST"

// Config holds host configuration.
type Config struct {
	Scripts  ScriptsConfig  `mapstructure:"scripts"`
	UI       UIConfig       `mapstructure:"ui"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

// ScriptsConfig locates script units.
type ScriptsConfig struct {
	Root  string `mapstructure:"root"`
	Watch bool   `mapstructure:"watch"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	LayoutFile  string `mapstructure:"layout_file"`
	ShowOnStart bool   `mapstructure:"show_on_start"`
	FrameRate   int    `mapstructure:"frame_rate"`
}

// SecurityConfig controls optional script facilities.
type SecurityConfig struct {
	Level      string   `mapstructure:"level"`
	GrantsFile string   `mapstructure:"grants_file"`
	Facilities []string `mapstructure:"facilities"`
	TrustAll   bool     `mapstructure:"trust_all"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Dir returns ~/.scripthost, or .scripthost when there is no home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scripthost"
	}
	return filepath.Join(home, ".scripthost")
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scripts.root", "./scripts")
	v.SetDefault("scripts.watch", true)
	v.SetDefault("ui.layout_file", filepath.Join(Dir(), "layout.yaml"))
	v.SetDefault("ui.show_on_start", true)
	v.SetDefault("ui.frame_rate", 30)
	v.SetDefault("security.level", "standard")
	v.SetDefault("security.grants_file", filepath.Join(Dir(), "grants.yaml"))
	v.SetDefault("security.facilities", []string{})
	v.SetDefault("security.trust_all", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Default returns the configuration with no file and no environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Load reads configuration. An explicit path must exist; the default path
// is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.UI.LayoutFile = ExpandHome(c.UI.LayoutFile)
	c.Security.GrantsFile = ExpandHome(c.Security.GrantsFile)
	c.Log.File = ExpandHome(c.Log.File)
	if c.UI.FrameRate <= 0 {
		c.UI.FrameRate = 30
	}
	return c, nil
}

// Save writes cfg to path, creating the directory if needed. The UI uses it
// to persist preferences such as show_on_start.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("scripts.root", cfg.Scripts.Root)
	v.Set("scripts.watch", cfg.Scripts.Watch)
	v.Set("ui.layout_file", cfg.UI.LayoutFile)
	v.Set("ui.show_on_start", cfg.UI.ShowOnStart)
	v.Set("ui.frame_rate", cfg.UI.FrameRate)
	v.Set("security.level", cfg.Security.Level)
	v.Set("security.grants_file", cfg.Security.GrantsFile)
	v.Set("security.facilities", cfg.Security.Facilities)
	v.Set("security.trust_all", cfg.Security.TrustAll)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
