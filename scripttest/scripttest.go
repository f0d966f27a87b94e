// Package scripttest holds helpers shared by package tests.
package scripttest

import (
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing/fstest"
	"time"
)

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CountingFS wraps an fs.FS and counts every Open and Stat.
type CountingFS struct {
	FS    fs.FS
	opens atomic.Int64
	stats atomic.Int64
}

// NewCountingFS returns a CountingFS over a map of file name to contents.
func NewCountingFS(files map[string]string) *CountingFS {
	m := fstest.MapFS{}
	for name, body := range files {
		m[name] = &fstest.MapFile{Data: []byte(body), Mode: 0o644}
	}
	return &CountingFS{FS: m}
}

func (c *CountingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

func (c *CountingFS) Stat(name string) (fs.FileInfo, error) {
	c.stats.Add(1)
	return fs.Stat(c.FS, name)
}

// Opens returns the number of Open calls so far.
func (c *CountingFS) Opens() int { return int(c.opens.Load()) }

// Stats returns the number of Stat calls so far.
func (c *CountingFS) Stats() int { return int(c.stats.Load()) }

// Accesses returns Opens plus Stats.
func (c *CountingFS) Accesses() int { return c.Opens() + c.Stats() }

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a clock at a fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
