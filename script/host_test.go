package script_test

import (
	"strings"
	"testing"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/scripttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

type output struct{ lines []string }

func (o *output) write(line string) { o.lines = append(o.lines, line) }

func newHost(t *testing.T, opts ...script.Option) (*script.Host, *output) {
	t.Helper()
	out := &output{}
	opts = append([]script.Option{
		script.WithLogger(scripttest.NewTestLogger()),
		script.WithOutput(out.write),
	}, opts...)
	h := script.New(opts...)
	t.Cleanup(h.Close)
	return h, out
}

func TestExecute_ReturnsValues(t *testing.T) {
	h, _ := newHost(t)

	res := h.Execute(`return 1 + 1, "two"`)
	require.NoError(t, res.Err)
	assert.Equal(t, []lua.LValue{lua.LNumber(2), lua.LString("two")}, res.Values)
	assert.Equal(t, "2\ttwo", res.String())
	assert.Equal(t, lua.LNumber(2), res.First())
}

func TestExecute_FaultIsContained(t *testing.T) {
	h, _ := newHost(t, script.WithGeneration(4))

	res := h.Execute(`error("boom")`)
	require.Error(t, res.Err)
	assert.True(t, res.Empty())

	var se *script.ScriptError
	require.ErrorAs(t, res.Err, &se)
	assert.Equal(t, scripthost.Generation(4), se.Generation)
	assert.Equal(t, "execute", se.Chunk)
	assert.Contains(t, se.Error(), "boom")

	res = h.Execute(`this is not lua`)
	require.Error(t, res.Err)

	assert.NoError(t, h.Execute(`x = 1`).Err)
}

func TestExecute_GoPanicIsContained(t *testing.T) {
	h, _ := newHost(t)
	require.NoError(t, h.Bootstrap(func() error {
		h.RegisterGlobal("explode", h.State().NewFunction(func(*lua.LState) int { panic("kaboom") }))
		return nil
	}))

	res := h.Execute(`explode()`)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "kaboom")
	assert.Equal(t, lua.LNumber(3), h.Execute(`return 3`).First())
}

func TestSandbox_HasNoEscapeHatches(t *testing.T) {
	h, _ := newHost(t)

	for _, name := range []string{"io", "os", "require", "dofile", "loadfile", "load", "loadstring", "debug", "package", "collectgarbage", "rawset"} {
		res := h.Execute("return " + name)
		require.NoError(t, res.Err, name)
		assert.Equal(t, lua.LNil, res.First(), name)
	}
}

func TestPrint_ReachesConsole(t *testing.T) {
	h, out := newHost(t)

	require.NoError(t, h.Execute(`print("first", 2)`).Err)
	require.NoError(t, h.Execute(`log("second")`).Err)
	assert.Equal(t, []string{"first 2", "second"}, out.lines)
}

func TestProtectedGlobals(t *testing.T) {
	h, out := newHost(t)

	t.Run("script assignment ignored", func(t *testing.T) {
		require.NoError(t, h.Execute(`print = nil log = function() end Vector3 = 5`).Err)
		require.NoError(t, h.Execute(`print("still here")`).Err)
		assert.Contains(t, out.lines, "still here")
		assert.Equal(t, lua.LString("table"), h.Execute(`return type(Vector3)`).First())
	})

	t.Run("RegisterGlobal refused", func(t *testing.T) {
		assert.False(t, h.RegisterGlobal("log", 1))
		assert.True(t, h.RegisterGlobal("answer", 42))
		assert.Equal(t, lua.LNumber(42), h.Execute(`return answer`).First())
	})

	t.Run("metatable locked", func(t *testing.T) {
		assert.Equal(t, lua.LString(script.LockedMetatable), h.Execute(`return getmetatable(_G)`).First())
		assert.Error(t, h.Execute(`setmetatable(_G, nil)`).Err)
	})

	t.Run("math survives", func(t *testing.T) {
		require.NoError(t, h.Execute(`math = nil`).Err)
		assert.Equal(t, lua.LNumber(2), h.Execute(`return math.floor(2.5)`).First())
	})

	t.Run("user globals stay writable", func(t *testing.T) {
		require.NoError(t, h.Execute(`counter = 1 counter = counter + 1`).Err)
		assert.Equal(t, lua.LNumber(2), h.Execute(`return counter`).First())
	})
}

func TestBootstrap_ProtectsBridges(t *testing.T) {
	h, _ := newHost(t)

	require.NoError(t, h.Bootstrap(func() error {
		tbl := h.State().NewTable()
		tbl.RawSetString("ping", h.State().NewFunction(func(L *lua.LState) int {
			L.Push(lua.LString("pong"))
			return 1
		}))
		assert.True(t, h.RegisterGlobal("net", tbl))
		return nil
	}))

	assert.True(t, h.IsProtected("net"))
	require.NoError(t, h.Execute(`net = nil`).Err)
	assert.Equal(t, lua.LString("pong"), h.Execute(`return net.ping()`).First())
	assert.Contains(t, h.HelpLines(), "net.ping")
	assert.Contains(t, h.Globals(), "net")
}

func TestCallGlobalFunction(t *testing.T) {
	h, _ := newHost(t)
	require.NoError(t, h.Execute(`function add(a, b) return a + b end notfn = 3`).Err)

	assert.Equal(t, lua.LNumber(5), h.CallGlobalFunction("add", 2, 3).First())

	res := h.CallGlobalFunction("missing")
	assert.NoError(t, res.Err)
	assert.True(t, res.Empty())
	assert.True(t, h.CallGlobalFunction("notfn").Empty())

	require.NoError(t, h.Execute(`function bad() error("nope") end`).Err)
	assert.Error(t, h.CallGlobalFunction("bad").Err)
}

func TestCall_StaleGenerationIsNoop(t *testing.T) {
	first, _ := newHost(t, script.WithGeneration(1))
	second, _ := newHost(t, script.WithGeneration(2))

	require.NoError(t, first.Execute(`function cb() hits = (hits or 0) + 1 return hits end`).Err)
	ref := first.Capture(first.State().GetGlobal("cb").(*lua.LFunction))

	assert.Equal(t, lua.LNumber(1), first.Call(ref).First())

	res := second.Call(ref)
	assert.NoError(t, res.Err)
	assert.True(t, res.Empty())

	first.Close()
	assert.True(t, first.Call(ref).Empty())
	assert.True(t, first.Closed())
}

func TestCall_FaultEmitsError(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.Execute(`function cb(v) error("bad value " .. tostring(v)) end`).Err)
	ref := h.Capture(h.State().GetGlobal("cb").(*lua.LFunction))

	res := h.Call(ref, true)
	require.Error(t, res.Err)
	require.Len(t, out.lines, 1)
	assert.True(t, strings.HasPrefix(out.lines[0], "Error: "))
	assert.Contains(t, out.lines[0], "bad value true")
}

func TestClosedHostIsTotal(t *testing.T) {
	h, _ := newHost(t)
	h.Close()
	h.Close()

	assert.ErrorIs(t, h.Execute(`return 1`).Err, script.ErrHostClosed)
	assert.ErrorIs(t, h.ExecuteFile("a.lua").Err, script.ErrHostClosed)
	assert.True(t, h.ExecuteCommand("1").Empty())
	assert.False(t, h.RegisterGlobal("x", 1))
	assert.ErrorIs(t, h.Bootstrap(func() error { return nil }), script.ErrHostClosed)
}

func TestTimeFrame(t *testing.T) {
	h, _ := newHost(t)
	h.SetFrame(0, 7)
	assert.Equal(t, lua.LNumber(7), h.Execute(`return Time.frame()`).First())
}
