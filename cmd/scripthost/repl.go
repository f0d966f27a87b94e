package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/reglet-dev/reglet-scripthost/config"
	"github.com/reglet-dev/reglet-scripthost/hostapp"
)

const (
	promptMain  = "lua> "
	historyFile = "history"
)

func runREPL(ctx context.Context, app *hostapp.App) error {
	fmt.Println("scripthost console. Type reloadscripts to reload, :quit to exit.")

	histPath := filepath.Join(config.Dir(), historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	// Lines produced while loading are shown first.
	seen := flush(app, 0)
	last := time.Now()
	for ctx.Err() == nil {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == ":quit" {
			return nil
		}
		if trimmed != "" {
			ln.AppendHistory(line)
			app.Submit(line)
		}

		now := time.Now()
		app.Tick(now.Sub(last))
		last = now
		seen = flush(app, seen)
	}
	return nil
}

// flush prints console lines appended since seen and returns the new mark.
// Echoed input is skipped.
func flush(app *hostapp.App, seen int) int {
	c := app.Console()
	total := c.Total()
	for _, line := range c.Tail(min(total-seen, c.Len())) {
		if strings.HasPrefix(line, "> ") {
			continue
		}
		fmt.Println(line)
	}
	return total
}
