package script

import (
	"io/fs"
	"log/slog"
	"time"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/capability"
)

// DefaultMaxFileSize is the largest script file ExecuteFile accepts.
const DefaultMaxFileSize int64 = 1 << 20

// ScriptExtension is the only extension ExecuteFile loads.
const ScriptExtension = ".lua"

type hostConfig struct {
	generation  scripthost.Generation
	root        fs.FS
	whitelist   *capability.Whitelist
	logger      *slog.Logger
	output      func(line string)
	now         func() time.Time
	maxFileSize int64
	middleware  []scripthost.Middleware
}

// Option configures a Host.
type Option func(*hostConfig)

// WithGeneration sets the generation the host represents.
func WithGeneration(g scripthost.Generation) Option {
	return func(c *hostConfig) { c.generation = g }
}

// WithRoot sets the script root. ExecuteFile never reaches outside it.
func WithRoot(root fs.FS) Option {
	return func(c *hostConfig) { c.root = root }
}

// WithWhitelist replaces the default utility surface.
func WithWhitelist(w *capability.Whitelist) Option {
	return func(c *hostConfig) { c.whitelist = w }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOutput sets where console lines produced by scripts go.
func WithOutput(fn func(line string)) Option {
	return func(c *hostConfig) { c.output = fn }
}

// WithClock sets the clock behind Time.now.
func WithClock(now func() time.Time) Option {
	return func(c *hostConfig) { c.now = now }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(c *hostConfig) {
		if n > 0 {
			c.maxFileSize = n
		}
	}
}

// WithMiddleware adds middleware to the host's fault boundary.
func WithMiddleware(mw ...scripthost.Middleware) Option {
	return func(c *hostConfig) { c.middleware = append(c.middleware, mw...) }
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		generation:  1,
		logger:      slog.Default(),
		output:      func(string) {},
		now:         time.Now,
		maxFileSize: DefaultMaxFileSize,
	}
}
