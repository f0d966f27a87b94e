package source_test

import (
	"errors"
	"testing"
	"testing/fstest"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/bridge"
	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/schema"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/scripttest"
	"github.com/reglet-dev/reglet-scripthost/source"
	"github.com/reglet-dev/reglet-scripthost/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

type rig struct {
	files    fstest.MapFS
	bus      *event.Bus
	registry *ui.Registry
	schemas  *schema.Registry
	world    *engine.MemoryWorld
	lines    []string
	builds   int
}

func newRig(t *testing.T, files map[string]string) *rig {
	t.Helper()
	r := &rig{
		files:    fstest.MapFS{},
		bus:      event.NewBus(event.WithLogger(scripttest.NewTestLogger())),
		registry: ui.NewRegistry(ui.WithLogger(scripttest.NewTestLogger())),
		schemas:  schema.NewRegistry(),
		world:    engine.NewMemoryWorld(),
	}
	for name, body := range files {
		r.files[name] = &fstest.MapFile{Data: []byte(body)}
	}
	require.NoError(t, bridge.RegisterSchemas(r.schemas))
	return r
}

func (r *rig) build(gen scripthost.Generation) (*script.Host, error) {
	r.builds++
	h := script.New(
		script.WithGeneration(gen),
		script.WithRoot(r.files),
		script.WithLogger(scripttest.NewTestLogger()),
		script.WithOutput(func(line string) { r.lines = append(r.lines, line) }),
	)
	if _, err := bridge.Install(h, bridge.Deps{World: r.world, Registry: r.registry, Bus: r.bus, Schemas: r.schemas}); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (r *rig) baseline(*script.Host) error {
	if s := r.registry.RegisterPanel("Host"); s != ui.Ok && s != ui.AlreadyRegistered {
		return errors.New(s.String())
	}
	return nil
}

func (r *rig) reloader(opts ...source.ReloaderOption) *source.Reloader {
	opts = append([]source.ReloaderOption{
		source.WithBaseline(r.baseline),
		source.WithReloaderLogger(scripttest.NewTestLogger()),
	}, opts...)
	return source.NewReloader(source.NewFS(r.files), r.bus, r.registry, r.build, opts...)
}

const panelScript = `
ui.registerPanel("Demo")
ui.registerTab("Demo", "Main")
ui.registerLabel("Demo", "Main", "l1", "Hello")
events.on("update", function() ticks = (ticks or 0) + 1 end)
`

func TestReloader_LoadAllRunsUnitsInOrder(t *testing.T) {
	r := newRig(t, map[string]string{
		"b.lua": `print("b")`,
		"a.lua": `print("a")`,
		"c.txt": `print("c")`,
	})
	rl := r.reloader()

	rep, err := rl.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.lines)
	assert.Equal(t, []string{"a.lua", "b.lua"}, rep.Units)
	assert.Empty(t, rep.Failed)
	assert.Equal(t, scripthost.Generation(1), rep.Generation)
	assert.NotEmpty(t, rep.RunID)
	assert.True(t, r.registry.HasPanel("Host"))
	require.NotNil(t, rl.Host())
	assert.Equal(t, scripthost.Generation(1), rl.Host().Generation())
}

func TestReloader_ReplacesGeneration(t *testing.T) {
	r := newRig(t, map[string]string{"main.lua": panelScript})
	rl := r.reloader()

	_, err := rl.LoadAll()
	require.NoError(t, err)
	first := rl.Host()
	subs := r.bus.Count("")

	rep, err := rl.Reload()
	require.NoError(t, err)
	assert.Equal(t, scripthost.Generation(2), rep.Generation)
	assert.True(t, first.Closed())
	assert.NotSame(t, first, rl.Host())

	assert.Equal(t, subs, r.bus.Count(""), "old subscriptions are detached")
	assert.True(t, r.registry.HasOption("Demo", "Main", "l1"))
	assert.Equal(t, 2, r.registry.Len())

	r.bus.Publish(event.TopicUpdate, 0.1)
	assert.Equal(t, lua.LNumber(1), rl.Host().Execute(`return ticks`).First())
}

func TestReloader_ScriptFaultDoesNotStopOthers(t *testing.T) {
	r := newRig(t, map[string]string{
		"a.lua": `error("broken")`,
		"b.lua": `print("b ran")`,
	})

	rep, err := r.reloader().LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.lua"}, rep.Failed)
	assert.Contains(t, r.lines, "b ran")
}

func TestReloader_RemovedScriptLeavesNoUI(t *testing.T) {
	r := newRig(t, map[string]string{"main.lua": panelScript})
	rl := r.reloader()
	_, err := rl.LoadAll()
	require.NoError(t, err)

	delete(r.files, "main.lua")
	_, err = rl.Reload()
	require.NoError(t, err)

	assert.False(t, r.registry.HasPanel("Demo"))
	assert.True(t, r.registry.HasPanel("Host"))
}

func TestReloader_RejectsReentry(t *testing.T) {
	r := newRig(t, nil)
	var rl *source.Reloader
	var inner error
	build := r.build
	rl = source.NewReloader(source.NewFS(r.files), r.bus, r.registry, func(gen scripthost.Generation) (*script.Host, error) {
		_, inner = rl.Reload()
		return build(gen)
	}, source.WithReloaderLogger(scripttest.NewTestLogger()))

	_, err := rl.LoadAll()
	require.NoError(t, err)
	assert.ErrorIs(t, inner, source.ErrReloadInProgress)
	assert.False(t, rl.Reloading())
	assert.Equal(t, 1, r.builds)
}

func TestReloader_FailedStepStops(t *testing.T) {
	t.Run("build", func(t *testing.T) {
		r := newRig(t, map[string]string{"main.lua": `print("never")`})
		rl := source.NewReloader(source.NewFS(r.files), r.bus, r.registry, func(scripthost.Generation) (*script.Host, error) {
			return nil, errors.New("no interpreter")
		}, source.WithReloaderLogger(scripttest.NewTestLogger()))

		_, err := rl.LoadAll()
		var stepErr *source.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, source.StepBuild, stepErr.Step)
		assert.Nil(t, rl.Host())
		assert.Empty(t, r.lines)
		assert.False(t, rl.Reloading())
	})

	t.Run("baseline panic", func(t *testing.T) {
		r := newRig(t, map[string]string{"main.lua": `print("ran")`})
		rl := r.reloader(source.WithBaseline(func(*script.Host) error { panic("boom") }))

		_, err := rl.LoadAll()
		var stepErr *source.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, source.StepBaseline, stepErr.Step)
		var panicErr *scripthost.PanicError
		assert.ErrorAs(t, err, &panicErr)
		assert.Equal(t, []string{"ran"}, r.lines, "partial work is kept")

		_, err = rl.Reload()
		assert.Error(t, err, "the flag is cleared so a later reload runs")
		assert.Equal(t, 2, r.builds)
	})
}

func TestReloader_OnReloadAndClose(t *testing.T) {
	r := newRig(t, map[string]string{"main.lua": panelScript})
	var seen []scripthost.Generation
	rl := r.reloader(source.WithOnReload(func(h *script.Host) { seen = append(seen, h.Generation()) }))

	_, err := rl.LoadAll()
	require.NoError(t, err)
	_, err = rl.Reload()
	require.NoError(t, err)
	assert.Equal(t, []scripthost.Generation{1, 2}, seen)

	h := rl.Host()
	rl.Close()
	assert.True(t, h.Closed())
	assert.Zero(t, r.bus.Count(""))
	assert.Nil(t, rl.Host())
}
