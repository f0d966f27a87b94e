package capability_test

import (
	"log/slog"
	"testing"
	"time"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/scripttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

type fakeEnv struct {
	lines []string
	gen   scripthost.Generation
	now   time.Time
}

func (e *fakeEnv) Output(line string) { e.lines = append(e.lines, line) }
func (e *fakeEnv) Logger() *slog.Logger { return scripttest.NewTestLogger() }
func (e *fakeEnv) Generation() scripthost.Generation { return e.gen }
func (e *fakeEnv) Now() time.Time { return e.now }
func (e *fakeEnv) FrameDelta() time.Duration { return 500 * time.Millisecond }
func (e *fakeEnv) FrameCount() uint64 { return 42 }
func (e *fakeEnv) Help() []string { return []string{"a", "b"} }

func sandbox(t *testing.T, env capability.Env) *lua.LState {
	t.Helper()
	L := capability.NewSandboxState()
	t.Cleanup(L.Close)
	capability.DefaultWhitelist().Install(L, L.G.Global, env)
	return L
}

func eval(t *testing.T, L *lua.LState, expr string) lua.LValue {
	t.Helper()
	require.NoError(t, L.DoString("return "+expr))
	v := L.Get(-1)
	L.Pop(1)
	return v
}

func TestSandbox_StripsDangerousGlobals(t *testing.T) {
	L := capability.NewSandboxState()
	defer L.Close()

	for _, name := range capability.StrippedGlobals {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), name)
	}
	for _, lib := range []string{"io", "os", "package", "debug", "coroutine"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(lib), lib)
	}
	assert.NotEqual(t, lua.LNil, L.GetGlobal("string"))
	assert.NotEqual(t, lua.LNil, L.GetGlobal("math"))
	assert.NotEqual(t, lua.LNil, L.GetGlobal("pcall"))
}

func TestNewWhitelist_Validation(t *testing.T) {
	noop := func(capability.Env) lua.LGFunction {
		return func(*lua.LState) int { return 0 }
	}

	tests := []struct {
		name    string
		entries []capability.Entry
		wantErr string
	}{
		{"bad function name", []capability.Entry{{Function: "1x", Factory: noop}}, "invalid"},
		{"bad type name", []capability.Entry{{Type: "a.b", Function: "x", Factory: noop}}, "invalid"},
		{"missing factory", []capability.Entry{{Function: "x"}}, "no factory"},
		{"duplicate", []capability.Entry{{Function: "x", Factory: noop}, {Function: "x", Factory: noop}}, "duplicate"},
		{"function clashes with type", []capability.Entry{
			{Type: "T", Function: "new", Factory: noop},
			{Function: "T", Factory: noop},
		}, "clashes"},
		{"command on a type", []capability.Entry{{Type: "T", Function: "run", Command: true, Factory: noop}}, "must be a global function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capability.NewWhitelist(capability.WithEntries(tt.entries...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWhitelist_Protected(t *testing.T) {
	w := capability.DefaultWhitelist()

	for _, name := range []string{"log", "print", "help", "requireApi", "math", "Mathf", "Time", "Color", "Vector3", "Quaternion"} {
		assert.True(t, w.IsProtected(name), name)
	}
	assert.False(t, w.IsProtected("myGlobal"))
	assert.IsIncreasing(t, w.Protected())
}

func TestWhitelist_IsCommand(t *testing.T) {
	w := capability.DefaultWhitelist()

	assert.True(t, w.IsCommand("help"))
	for _, name := range []string{"print", "log", "requireApi", "Vector3", "missing"} {
		assert.False(t, w.IsCommand(name), name)
	}
}

func TestWhitelist_InstallBindsOnlyEntries(t *testing.T) {
	L := capability.NewSandboxState()
	defer L.Close()
	target := L.NewTable()

	w := capability.DefaultWhitelist()
	w.Install(L, target, &fakeEnv{})

	var keys []string
	target.ForEach(func(k, _ lua.LValue) { keys = append(keys, k.String()) })

	globals := map[string]bool{}
	for _, e := range w.Entries() {
		globals[e.Global()] = true
	}
	assert.Len(t, keys, len(globals))
	for _, k := range keys {
		assert.True(t, globals[k], k)
	}
}

func TestWhitelist_ReinstallIsIdempotent(t *testing.T) {
	env := &fakeEnv{}
	L := sandbox(t, env)
	capability.DefaultWhitelist().Install(L, L.G.Global, env)

	assert.Equal(t, lua.LNumber(3), eval(t, L, "Vector3(1, 2, 3).z"))
}

func TestWhitelist_HelpLinesSorted(t *testing.T) {
	lines := capability.DefaultWhitelist().HelpLines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines, "help  help() lists reachable globals")
}

func TestGlobals_LogAndHelp(t *testing.T) {
	env := &fakeEnv{gen: 3}
	L := sandbox(t, env)

	require.NoError(t, L.DoString(`log("hello", 1, true) print(Vector3.up())`))
	require.NoError(t, L.DoString(`help()`))

	assert.Equal(t, []string{"hello 1 true", "(0.00, 1.00, 0.00)", "a", "b"}, env.lines)
}

func TestGlobals_RequireAPI(t *testing.T) {
	L := sandbox(t, &fakeEnv{})

	assert.Equal(t, lua.LString(scripthost.APIVersion), eval(t, L, `requireApi(">= 1.0")`))

	err := L.DoString(`requireApi("^2.0")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")

	err = L.DoString(`requireApi("not a version")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version constraint")
}

func TestTime_UsesEnv(t *testing.T) {
	env := &fakeEnv{now: time.Unix(1700000000, 0)}
	L := sandbox(t, env)

	assert.Equal(t, lua.LNumber(1700000000), eval(t, L, "Time.now()"))
	assert.Equal(t, lua.LNumber(0.5), eval(t, L, "Time.delta()"))
	assert.Equal(t, lua.LNumber(42), eval(t, L, "Time.frame()"))
}
