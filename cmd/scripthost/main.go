package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/capability/gatekeeper"
	"github.com/reglet-dev/reglet-scripthost/config"
	"github.com/reglet-dev/reglet-scripthost/extractor"
	"github.com/reglet-dev/reglet-scripthost/hostapp"
	"github.com/reglet-dev/reglet-scripthost/source"
)

const (
	modeTUI  = "tui"
	modeREPL = "repl"
)

func main() {
	var (
		configPath  string
		scriptsRoot string
		mode        string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "config file (default ~/.scripthost/config.yaml)")
	flag.StringVar(&scriptsRoot, "scripts", "", "override scripts.root")
	flag.StringVar(&mode, "mode", modeTUI, "front end: tui or repl")
	flag.BoolVar(&showVersion, "version", false, "print the scripting API version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("scripthost API %s\n", scripthost.APIVersion)
		return
	}

	if err := run(configPath, scriptsRoot, mode); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, scriptsRoot, mode string) error {
	if mode != modeTUI && mode != modeREPL {
		return fmt.Errorf("unknown mode %q (want %s or %s)", mode, modeTUI, modeREPL)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if scriptsRoot != "" {
		cfg.Scripts.Root = scriptsRoot
	}
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	logger, closeLog, err := newLogger(cfg.Log, mode == modeTUI)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	declared, err := extractor.FromSource(source.New(cfg.Scripts.Root))
	if err != nil {
		return fmt.Errorf("scanning scripts: %w", err)
	}
	if !declared.IsEmpty() {
		logger.Info("scripts request facilities", "facilities", declared.Facilities)
		cfg.Security.Facilities = append(cfg.Security.Facilities, declared.Facilities...)
	}

	grants, err := hostapp.ResolveGrants(cfg.Security, logger,
		gatekeeper.WithPrompter(gatekeeper.NewTerminalPrompter()))
	if err != nil {
		return err
	}

	app, err := hostapp.New(cfg,
		hostapp.WithLogger(logger),
		hostapp.WithGrants(grants),
		hostapp.WithConfigPath(configPath),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return err
	}
	logger.Info("script host started",
		"mode", mode,
		"scripts", cfg.Scripts.Root,
		"generation", app.Generation().String(),
		"units", len(app.LastReport().Units),
	)

	if mode == modeREPL {
		return runREPL(ctx, app)
	}
	return runTUI(app, cfg.UI.FrameRate)
}

// newLogger builds the slog handler described by cfg. The TUI owns the
// terminal, so without a log file its output is discarded.
func newLogger(cfg config.LogConfig, tui bool) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case tui:
		w = io.Discard
	}

	var level slog.Level
	levelErr := level.UnmarshalText([]byte(cfg.Level))
	if levelErr != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	default:
		closeFn()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := slog.New(h)
	if levelErr != nil {
		logger.Warn("invalid log level, using info", "level", cfg.Level)
	}
	return logger, closeFn, nil
}
