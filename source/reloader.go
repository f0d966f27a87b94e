package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/ui"
)

// ErrReloadInProgress is returned by Reload while another reload is running.
var ErrReloadInProgress = errors.New("reload already in progress")

// Reload steps, in order.
const (
	StepDetach   = "detach"
	StepRemoveUI = "remove-ui"
	StepDispose  = "dispose"
	StepBuild    = "build"
	StepExecute  = "execute"
	StepBaseline = "baseline"
)

// StepError reports the step that stopped a reload.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("reload step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Builder creates the host for generation gen with the whitelist and every
// bridge installed.
type Builder func(gen scripthost.Generation) (*script.Host, error)

// Baseline re-creates host-owned UI after scripts ran. It must tolerate
// entries that already exist.
type Baseline func(h *script.Host) error

// Report describes one reload.
type Report struct {
	RunID      string
	Generation scripthost.Generation
	Units      []string
	Failed     []string
	Duration   time.Duration
}

// Reloader tears down the current script generation and builds the next.
// It belongs to the owning thread.
type Reloader struct {
	source   *Source
	bus      *event.Bus
	registry *ui.Registry
	build    Builder
	baseline Baseline
	boundary *scripthost.Boundary
	logger   *slog.Logger

	host      *script.Host
	gen       scripthost.Generation
	reloading bool
	onReload  func(*script.Host)
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithBaseline sets the step that re-creates host UI.
func WithBaseline(b Baseline) ReloaderOption {
	return func(r *Reloader) { r.baseline = b }
}

// WithReloaderLogger sets the logger.
func WithReloaderLogger(logger *slog.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = logger }
}

// WithOnReload registers a hook called with each new host once its units
// have run.
func WithOnReload(fn func(*script.Host)) ReloaderOption {
	return func(r *Reloader) { r.onReload = fn }
}

// NewReloader creates a reloader. No generation exists until LoadAll.
func NewReloader(src *Source, bus *event.Bus, registry *ui.Registry, build Builder, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		source:   src,
		bus:      bus,
		registry: registry,
		build:    build,
		logger:   slog.Default(),
		gen:      scripthost.HostGeneration,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.boundary = scripthost.NewBoundary(scripthost.WithBoundaryLogger(r.logger))
	return r
}

// Host returns the live host, or nil before the first load.
func (r *Reloader) Host() *script.Host { return r.host }

// Generation returns the generation of the last build attempt.
func (r *Reloader) Generation() scripthost.Generation { return r.gen }

// Reloading reports whether a reload is running.
func (r *Reloader) Reloading() bool { return r.reloading }

// LoadAll performs the initial load.
func (r *Reloader) LoadAll() (Report, error) {
	return r.run("initial load")
}

// Reload replaces the current generation.
func (r *Reloader) Reload() (Report, error) {
	return r.run("reload")
}

func (r *Reloader) run(kind string) (Report, error) {
	if r.reloading {
		r.logger.Info("reload request ignored", "reason", "in progress", "generation", r.gen.String())
		return Report{}, ErrReloadInProgress
	}
	r.reloading = true
	defer func() { r.reloading = false }()

	start := time.Now()
	prevGen := r.gen
	rep := Report{RunID: uuid.NewString(), Generation: prevGen.Next()}
	logger := r.logger.With("run_id", rep.RunID, "generation", rep.Generation.String())
	logger.Info(kind+" started")

	prev := r.host
	steps := []struct {
		name string
		fn   func() error
	}{
		{StepDetach, func() error {
			if !prevGen.IsHost() {
				n := r.bus.DetachOwner(prevGen)
				logger.Debug("detached subscriptions", "count", n)
			}
			return nil
		}},
		{StepRemoveUI, func() error {
			n := r.registry.RemoveScriptOwned()
			logger.Debug("removed script UI", "count", n)
			return nil
		}},
		{StepDispose, func() error {
			if prev != nil {
				prev.Close()
				r.host = nil
			}
			return nil
		}},
		{StepBuild, func() error {
			r.gen = rep.Generation
			h, err := r.build(rep.Generation)
			if err != nil {
				return err
			}
			if h == nil {
				return errors.New("builder returned no host")
			}
			r.host = h
			return nil
		}},
		{StepExecute, func() error {
			units, err := r.source.Units()
			if err != nil {
				return err
			}
			rep.Units = units
			for _, name := range units {
				logger.Info("loading script", "unit", name)
				if res := r.host.ExecuteFile(name); res.Err != nil {
					rep.Failed = append(rep.Failed, name)
				}
			}
			return nil
		}},
		{StepBaseline, func() error {
			if r.baseline == nil {
				return nil
			}
			return r.baseline(r.host)
		}},
	}

	for _, s := range steps {
		err := r.boundary.Run("reload:"+s.name, func(context.Context) error { return s.fn() })
		if err != nil {
			rep.Duration = time.Since(start)
			logger.Error(kind+" stopped", "step", s.name, "error", err)
			return rep, &StepError{Step: s.name, Err: err}
		}
	}

	if r.onReload != nil {
		r.onReload(r.host)
	}
	rep.Duration = time.Since(start)
	logger.Info(kind+" finished", "units", len(rep.Units), "failed", len(rep.Failed), "duration", rep.Duration)
	return rep, nil
}

// Close disposes the live host and its subscriptions.
func (r *Reloader) Close() {
	if !r.gen.IsHost() {
		r.bus.DetachOwner(r.gen)
	}
	if r.host != nil {
		r.host.Close()
		r.host = nil
	}
}
