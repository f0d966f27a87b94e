// Package hostapp wires the script host together: world, registry, event
// bus, script generations, reload pipeline and console. An App is driven by
// a single owning loop that calls Tick and Render.
package hostapp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/bridge"
	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/config"
	"github.com/reglet-dev/reglet-scripthost/console"
	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/schema"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/source"
	"github.com/reglet-dev/reglet-scripthost/ui"
	"github.com/reglet-dev/reglet-scripthost/ui/layout"
)

// Global functions the host calls when present.
const (
	UpdateHook      = "OnUpdate"
	SceneLoadedHook = "OnSceneLoaded"
)

// App is the composed script host.
type App struct {
	cfg     config.Config
	cfgPath string
	logger  *slog.Logger
	now     func() time.Time

	world    engine.World
	layout   ui.LayoutStore
	registry *ui.Registry
	bus      *event.Bus
	schemas  *schema.Registry
	grants   *capability.GrantSet
	checker  *capability.Checker
	source   *source.Source
	queue    *source.Queue
	watcher  *source.Watcher
	reloader *source.Reloader
	console  *console.Console

	saveConfig func(path string, cfg config.Config) error
	visible    bool
	frame      uint64
	lastReport source.Report
	hierarchy  []string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWorld replaces the demo world.
func WithWorld(w engine.World) Option {
	return func(a *App) { a.world = w }
}

// WithSource replaces the on-disk script root from the config.
func WithSource(src *source.Source) Option {
	return func(a *App) { a.source = src }
}

// WithLayoutStore replaces the layout file from the config.
func WithLayoutStore(s ui.LayoutStore) Option {
	return func(a *App) { a.layout = s }
}

// WithGrants sets the optional facilities scripts may use.
func WithGrants(g *capability.GrantSet) Option {
	return func(a *App) { a.grants = g }
}

// WithConfigPath sets where preference changes are saved.
func WithConfigPath(path string) Option {
	return func(a *App) { a.cfgPath = path }
}

// WithConfigSaver replaces config.Save.
func WithConfigSaver(fn func(path string, cfg config.Config) error) Option {
	return func(a *App) { a.saveConfig = fn }
}

// WithClock sets the clock behind Time.now in scripts.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New builds an App. No script runs until Start.
func New(cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:        cfg,
		logger:     slog.Default(),
		now:        time.Now,
		saveConfig: config.Save,
		visible:    cfg.UI.ShowOnStart,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.world == nil {
		a.world = NewDemoWorld()
	}
	if a.layout == nil {
		a.layout = layout.NewFileStore(cfg.UI.LayoutFile)
	}
	if a.source == nil {
		a.source = source.New(cfg.Scripts.Root)
	}
	if err := a.source.EnsureDir(); err != nil {
		return nil, err
	}
	if a.grants == nil {
		a.grants = capability.NewGrantSet()
	}

	boundary := scripthost.NewBoundary(
		scripthost.WithBoundaryLogger(a.logger),
		scripthost.WithMiddleware(scripthost.LoggingMiddleware(a.logger)),
	)
	a.bus = event.NewBus(event.WithBoundary(boundary), event.WithLogger(a.logger))
	a.registry = ui.NewRegistry(
		ui.WithLayoutStore(a.layout),
		ui.WithBoundary(boundary),
		ui.WithLogger(a.logger),
	)
	a.checker = capability.NewChecker(a.grants,
		capability.WithCheckerLogger(a.logger),
		capability.WithDenialHandler(func(_ context.Context, _, message string) {
			a.emit("Error: " + message)
		}),
	)
	a.schemas = schema.NewRegistry()
	if err := bridge.RegisterSchemas(a.schemas); err != nil {
		return nil, err
	}

	a.queue = source.NewQueue()
	a.reloader = source.NewReloader(a.source, a.bus, a.registry, a.build,
		source.WithBaseline(a.baseline),
		source.WithReloaderLogger(a.logger),
	)
	a.console = console.New(a.bus, a.reloader.Host,
		console.WithReload(a.Reload),
		console.WithLogger(a.logger),
	)

	a.bus.Subscribe(event.TopicSceneLoaded, scripthost.HostGeneration, func(ev event.Event) error {
		if h := a.reloader.Host(); h != nil {
			return h.CallGlobalFunction(SceneLoadedHook, ev.Payload).Err
		}
		return nil
	})
	return a, nil
}

func (a *App) build(gen scripthost.Generation) (*script.Host, error) {
	h := script.New(
		script.WithGeneration(gen),
		script.WithRoot(a.source.FS()),
		script.WithLogger(a.logger),
		script.WithClock(a.now),
		script.WithOutput(a.emit),
		script.WithMiddleware(scripthost.LoggingMiddleware(a.logger)),
	)
	_, err := bridge.Install(h, bridge.Deps{
		World:    a.world,
		Registry: a.registry,
		Bus:      a.bus,
		Schemas:  a.schemas,
		Checker:  a.checker,
	})
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("installing bridges: %w", err)
	}
	return h, nil
}

func (a *App) emit(line string) {
	a.bus.Publish(event.TopicOutput, line)
}

// Start runs the initial load and, when configured, starts watching the
// script root. A watcher failure is logged and the host keeps running.
func (a *App) Start(ctx context.Context) error {
	rep, err := a.reloader.LoadAll()
	a.lastReport = rep
	if err != nil {
		return err
	}
	if a.cfg.Scripts.Watch && a.source.Dir() != "" {
		a.watcher = source.NewWatcher(a.source.Dir(), a.queue, source.WithWatcherLogger(a.logger))
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("hot reload disabled", "error", err)
		}
	}
	return nil
}

// Tick advances one frame: a pending reload runs first, then the update
// hook and the update topic.
func (a *App) Tick(dt time.Duration) {
	if req, ok := a.queue.Drain(); ok {
		a.logger.Info("reload requested", "reason", req.Reason)
		_ = a.Reload()
	}

	a.frame++
	h := a.reloader.Host()
	if h == nil {
		return
	}
	h.SetFrame(dt, a.frame)
	h.CallGlobalFunction(UpdateHook, dt.Seconds())
	a.bus.Publish(event.TopicUpdate, dt.Seconds())
}

// Render draws the registry when the UI is visible.
func (a *App) Render(f ui.Frame) {
	if a.visible {
		a.registry.Render(f)
	}
}

// Reload rebuilds the script generation now.
func (a *App) Reload() error {
	rep, err := a.reloader.Reload()
	if err != nil {
		return err
	}
	a.lastReport = rep
	return nil
}

// RequestReload asks the owning loop to reload on its next tick. It is safe
// to call from any goroutine.
func (a *App) RequestReload(reason string) bool {
	return a.queue.Post(source.Request{Reason: reason, At: a.now()})
}

// Submit runs one line of console input.
func (a *App) Submit(line string) { a.console.Submit(line) }

// Visible reports whether the registry is drawn.
func (a *App) Visible() bool { return a.visible }

// SetVisible shows or hides the registry.
func (a *App) SetVisible(v bool) { a.visible = v }

func (a *App) Config() config.Config { return a.cfg }
func (a *App) Console() *console.Console { return a.console }
func (a *App) Registry() *ui.Registry { return a.registry }
func (a *App) Bus() *event.Bus { return a.bus }
func (a *App) World() engine.World { return a.world }
func (a *App) Host() *script.Host { return a.reloader.Host() }
func (a *App) Generation() scripthost.Generation { return a.reloader.Generation() }
func (a *App) LastReport() source.Report { return a.lastReport }
func (a *App) Frame() uint64 { return a.frame }

// Close stops the watcher and disposes the live generation.
func (a *App) Close() error {
	var err error
	if a.watcher != nil {
		err = a.watcher.Close()
	}
	a.reloader.Close()
	a.console.Close()
	return err
}
