package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reglet-dev/reglet-scripthost/scripttest"
	"github.com/reglet-dev/reglet-scripthost/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Debounce(t *testing.T) {
	tests := []struct {
		name   string
		gap    time.Duration
		second bool
	}{
		{"within window", 50 * time.Millisecond, false},
		{"just inside window", 249 * time.Millisecond, false},
		{"at window", 250 * time.Millisecond, true},
		{"after window", 400 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := scripttest.NewManualClock()
			q := source.NewQueue()
			w := source.NewWatcher(t.TempDir(), q,
				source.WithClock(clock.Now),
				source.WithWatcherLogger(scripttest.NewTestLogger()))

			assert.True(t, w.Observe("a.lua"))
			_, ok := q.Drain()
			require.True(t, ok)

			clock.Advance(tt.gap)
			assert.Equal(t, tt.second, w.Observe("a.lua"))
			assert.Equal(t, tt.second, q.Pending())
		})
	}
}

func TestWatcher_DroppedEventDoesNotMoveWindow(t *testing.T) {
	clock := scripttest.NewManualClock()
	q := source.NewQueue()
	w := source.NewWatcher(t.TempDir(), q, source.WithClock(clock.Now), source.WithWatcherLogger(scripttest.NewTestLogger()))

	require.True(t, w.Observe("a.lua"))
	q.Drain()
	clock.Advance(200 * time.Millisecond)
	require.False(t, w.Observe("a.lua"))
	clock.Advance(100 * time.Millisecond)
	assert.True(t, w.Observe("a.lua"))
}

func TestWatcher_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	q := source.NewQueue()
	w := source.NewWatcher(dir, q, source.WithWatcherLogger(scripttest.NewTestLogger()))
	assert.Equal(t, source.Idle, w.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.Equal(t, source.Watching, w.State())
	assert.ErrorIs(t, w.Start(ctx), source.ErrNotIdle)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte("x = 1"), 0o644))
	require.Eventually(t, q.Pending, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	assert.Equal(t, source.Stopped, w.State())
	assert.NoError(t, w.Close())
}

func TestWatcher_StartFailsOnMissingDir(t *testing.T) {
	w := source.NewWatcher(filepath.Join(t.TempDir(), "missing"), source.NewQueue(),
		source.WithWatcherLogger(scripttest.NewTestLogger()))

	assert.Error(t, w.Start(context.Background()))
	assert.Equal(t, source.Stopped, w.State())
	assert.NoError(t, w.Close())
}

func TestWatcher_StopsWithContext(t *testing.T) {
	w := source.NewWatcher(t.TempDir(), source.NewQueue(), source.WithWatcherLogger(scripttest.NewTestLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	require.Eventually(t, func() bool { return w.State() == source.Stopped }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, w.Close())
}
