// Package console implements the command console: it echoes input, runs it
// against the live script host and keeps a bounded history of output lines.
package console

import (
	"log/slog"
	"slices"
	"strings"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/script"
)

// DefaultHistoryLimit is the number of lines kept.
const DefaultHistoryLimit = 500

// ReloadCommand is handled by the console itself. Case is ignored.
const ReloadCommand = "reloadscripts"

// ReloadedMessage is appended after a successful ReloadCommand.
const ReloadedMessage = "[Console] Reloaded all Lua scripts."

// Console is owned by the thread that runs the script host.
type Console struct {
	bus    *event.Bus
	host   func() *script.Host
	reload func() error
	limit  int
	logger *slog.Logger

	history []string
	total   int
	sub     event.Subscription
}

// Option configures a Console.
type Option func(*Console)

// WithHistoryLimit overrides DefaultHistoryLimit.
func WithHistoryLimit(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithReload sets what ReloadCommand runs.
func WithReload(fn func() error) Option {
	return func(c *Console) { c.reload = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// New creates a console that records every line published on the output
// topic. host returns the live host, which changes on reload.
func New(bus *event.Bus, host func() *script.Host, opts ...Option) *Console {
	c := &Console{
		bus:    bus,
		host:   host,
		limit:  DefaultHistoryLimit,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sub = bus.Subscribe(event.TopicOutput, scripthost.HostGeneration, func(ev event.Event) error {
		if line, ok := ev.Payload.(string); ok {
			c.Append(line)
		}
		return nil
	})
	return c
}

// Submit runs one line of input.
func (c *Console) Submit(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	c.Append("> " + line)

	if strings.EqualFold(trimmed, ReloadCommand) {
		c.runReload()
		return
	}

	h := c.host()
	if h == nil {
		c.Append("Error: no scripts loaded")
		return
	}
	h.ExecuteCommand(line)
}

func (c *Console) runReload() {
	if c.reload == nil {
		c.Append("Error: reload is not available")
		return
	}
	if err := c.reload(); err != nil {
		c.logger.Warn("console reload failed", "error", err)
		c.Append("Error: " + err.Error())
		return
	}
	c.Append(ReloadedMessage)
}

// Append adds a line, dropping the oldest beyond the limit.
func (c *Console) Append(line string) {
	c.history = append(c.history, line)
	c.total++
	if over := len(c.history) - c.limit; over > 0 {
		c.history = slices.Delete(c.history, 0, over)
	}
}

// History returns a copy of the kept lines, oldest first.
func (c *Console) History() []string { return slices.Clone(c.history) }

// Tail returns at most n of the newest lines.
func (c *Console) Tail(n int) []string {
	if n >= len(c.history) {
		return c.History()
	}
	return slices.Clone(c.history[len(c.history)-n:])
}

// Len returns the number of kept lines.
func (c *Console) Len() int { return len(c.history) }

// Total counts every line appended, including dropped and cleared ones.
func (c *Console) Total() int { return c.total }

// Clear empties the history.
func (c *Console) Clear() { c.history = nil }

// Close stops recording output.
func (c *Console) Close() { c.sub.Unsubscribe() }
