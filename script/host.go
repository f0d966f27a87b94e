// Package script runs one generation of sandboxed Lua.
//
// A Host owns a single interpreter state. Every public operation is total:
// faults raised by scripts, by bridge functions or by Go panics are caught at
// the host's boundary, logged, and reported in the Result.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	"github.com/reglet-dev/reglet-scripthost/capability"
	lua "github.com/yuin/gopher-lua"
)

// LockedMetatable is what getmetatable(_G) returns inside the sandbox.
const LockedMetatable = "locked"

// Host is not safe for concurrent use. It belongs to the goroutine that
// drives the registry and the render pass.
type Host struct {
	cfg      hostConfig
	state    *lua.LState
	logger   *slog.Logger
	boundary *scripthost.Boundary

	// backing holds every protected global behind _G's __index.
	backing       *lua.LTable
	protected     map[string]bool
	bridges       []string
	bootstrapping bool
	closed        bool

	frameDelta time.Duration
	frameCount uint64
}

// New creates a host with the whitelist installed and _G locked.
func New(opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.whitelist == nil {
		cfg.whitelist = capability.DefaultWhitelist()
	}

	logger := cfg.logger.With("generation", cfg.generation.String())
	h := &Host{
		cfg:       cfg,
		state:     capability.NewSandboxState(),
		logger:    logger,
		protected: make(map[string]bool),
		boundary: scripthost.NewBoundary(
			scripthost.WithBoundaryLogger(logger),
			scripthost.WithMiddleware(cfg.middleware...),
		),
	}
	h.backing = h.state.NewTable()

	h.bootstrapping = true
	cfg.whitelist.Install(h.state, h.backing, hostEnv{h})
	globals := h.state.G.Global
	for _, name := range cfg.whitelist.Protected() {
		h.protected[name] = true
		// Stock library values left in _G move behind the lock unless the
		// whitelist already installed its own under the same name.
		if v := globals.RawGetString(name); v != lua.LNil {
			if h.backing.RawGetString(name) == lua.LNil {
				h.backing.RawSetString(name, v)
			}
			globals.RawSetString(name, lua.LNil)
		}
	}
	h.lockGlobals()
	h.bootstrapping = false

	return h
}

func (h *Host) lockGlobals() {
	mt := h.state.NewTable()
	mt.RawSetString("__index", h.backing)
	mt.RawSetString("__newindex", h.state.NewFunction(h.guard))
	mt.RawSetString("__metatable", lua.LString(LockedMetatable))
	h.state.SetMetatable(h.state.G.Global, mt)
}

// guard is _G's __newindex. Unprotected names are stored raw; protected
// names only change while bootstrapping.
func (h *Host) guard(L *lua.LState) int {
	t := L.CheckTable(1)
	k, v := L.Get(2), L.Get(3)
	if name, ok := k.(lua.LString); ok && h.protected[string(name)] {
		if h.bootstrapping {
			h.backing.RawSetString(string(name), v)
			return 0
		}
		h.logger.Warn("ignored write to protected global", "name", string(name))
		return 0
	}
	t.RawSet(k, v)
	return 0
}

// Generation returns the generation this host represents.
func (h *Host) Generation() scripthost.Generation { return h.cfg.generation }

// State exposes the interpreter to bridge constructors. It must not be used
// after Close.
func (h *Host) State() *lua.LState { return h.state }

// Logger returns the host's logger, which carries the generation.
func (h *Host) Logger() *slog.Logger { return h.logger }

// Closed reports whether Close has been called.
func (h *Host) Closed() bool { return h.closed }

// Output writes a console line through the configured output.
func (h *Host) Output(line string) {
	h.cfg.output(line)
}

// SetFrame records the timing Time.delta and Time.frame report.
func (h *Host) SetFrame(delta time.Duration, count uint64) {
	h.frameDelta = delta
	h.frameCount = count
}

// Bootstrap runs fn with protected writes allowed. Every name passed to
// RegisterGlobal inside fn becomes protected.
func (h *Host) Bootstrap(fn func() error) error {
	if h.closed {
		return ErrHostClosed
	}
	h.bootstrapping = true
	defer func() { h.bootstrapping = false }()
	return h.boundary.Run("bootstrap", func(context.Context) error { return fn() })
}

// RegisterGlobal binds name to value. Outside Bootstrap a protected name is
// refused with a logged warning.
func (h *Host) RegisterGlobal(name string, value any) bool {
	if h.closed || name == "" {
		return false
	}
	lv := ToLua(h.state, value)
	if h.bootstrapping {
		if !h.protected[name] {
			h.protected[name] = true
			h.bridges = append(h.bridges, name)
		}
		h.backing.RawSetString(name, lv)
		h.state.G.Global.RawSetString(name, lua.LNil)
		return true
	}
	if h.protected[name] {
		h.logger.Warn("ignored write to protected global", "name", name)
		return false
	}
	h.state.G.Global.RawSetString(name, lv)
	return true
}

// IsProtected reports whether name is a protected global.
func (h *Host) IsProtected(name string) bool { return h.protected[name] }

// Execute runs text as a chunk in the current namespace.
func (h *Host) Execute(text string) Result {
	return h.run("execute", text)
}

// ExecuteFile runs a script from the root. The name must be a bare *.lua
// file name; anything else is refused before the filesystem is touched.
func (h *Host) ExecuteFile(name string) Result {
	if h.closed {
		return failed(ErrHostClosed)
	}
	data, err := readScript(h.cfg.root, name, h.cfg.maxFileSize)
	if err != nil {
		h.logger.Warn("script file rejected", "file", name, "error", err)
		return failed(err)
	}
	res := h.run(name, string(data))
	if res.Err != nil {
		h.Output("Error: " + errorMessage(res.Err))
	}
	return res
}

// CallGlobalFunction calls the global name when it holds a function.
func (h *Host) CallGlobalFunction(name string, args ...any) Result {
	if h.closed {
		return failed(ErrHostClosed)
	}
	fn, ok := h.state.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return Result{}
	}
	return h.invoke(name, fn, args)
}

// FuncRef is a script function captured by a bridge, bound to the
// generation that produced it.
type FuncRef struct {
	fn  *lua.LFunction
	gen scripthost.Generation
}

// Valid reports whether the reference holds a function.
func (r FuncRef) Valid() bool { return r.fn != nil }

// Capture binds fn to this host's generation.
func (h *Host) Capture(fn *lua.LFunction) FuncRef {
	return FuncRef{fn: fn, gen: h.cfg.generation}
}

// Call invokes a captured function. A reference from another generation,
// or a call on a closed host, does nothing. A fault is emitted as an
// "Error:" line.
func (h *Host) Call(ref FuncRef, args ...any) Result {
	if h.closed || !ref.Valid() || ref.gen != h.cfg.generation {
		h.logger.Debug("skipped stale callback", "callback_generation", ref.gen.String())
		return Result{}
	}
	res := h.invoke("callback", ref.fn, args)
	if res.Err != nil {
		h.Output("Error: " + errorMessage(res.Err))
	}
	return res
}

// Close releases the interpreter. Later calls are no-ops.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.state.Close()
	h.logger.Debug("script host closed")
}

// Globals returns every global name reachable from scripts, sorted.
func (h *Host) Globals() []string {
	seen := make(map[string]bool)
	for _, k := range SortedKeys(h.state.G.Global) {
		if h.state.G.Global.RawGetString(k) != lua.LNil {
			seen[k] = true
		}
	}
	for _, k := range SortedKeys(h.backing) {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HelpLines lists the whitelist followed by each bridge's functions.
func (h *Host) HelpLines() []string {
	lines := h.cfg.whitelist.HelpLines()
	bridges := append([]string(nil), h.bridges...)
	sort.Strings(bridges)
	for _, name := range bridges {
		tbl, ok := h.backing.RawGetString(name).(*lua.LTable)
		if !ok {
			lines = append(lines, name)
			continue
		}
		for _, k := range SortedKeys(tbl) {
			if _, fn := tbl.RawGetString(k).(*lua.LFunction); fn {
				lines = append(lines, name+"."+k)
			}
		}
	}
	return lines
}

func (h *Host) run(chunk, src string) Result {
	if h.closed {
		return failed(ErrHostClosed)
	}
	var res Result
	err := h.boundary.Run("script:"+chunk, func(context.Context) error {
		fn, err := h.state.Load(strings.NewReader(src), chunk)
		if err != nil {
			return err
		}
		res, err = h.pcall(fn, nil)
		return err
	})
	if err != nil {
		return failed(&ScriptError{Chunk: chunk, Generation: h.cfg.generation, Err: err})
	}
	return res
}

func (h *Host) invoke(label string, fn *lua.LFunction, args []any) Result {
	var res Result
	err := h.boundary.Run("script:"+label, func(context.Context) error {
		lv := make([]lua.LValue, len(args))
		for i, a := range args {
			lv[i] = ToLua(h.state, a)
		}
		var err error
		res, err = h.pcall(fn, lv)
		return err
	})
	if err != nil {
		return failed(&ScriptError{Chunk: label, Generation: h.cfg.generation, Err: err})
	}
	return res
}

func (h *Host) pcall(fn *lua.LFunction, args []lua.LValue) (Result, error) {
	L := h.state
	base := L.GetTop()
	defer L.SetTop(base)

	L.Push(fn)
	for _, a := range args {
		L.Push(a)
	}
	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		return Result{}, err
	}

	n := L.GetTop() - base
	res := Result{
		Values: make([]lua.LValue, 0, n),
		Text:   make([]string, 0, n),
	}
	for i := 1; i <= n; i++ {
		v := L.Get(base + i)
		res.Values = append(res.Values, v)
		res.Text = append(res.Text, L.ToStringMeta(v).String())
	}
	return res, nil
}

// errorMessage strips the chunk decoration from script faults.
func errorMessage(err error) string {
	if se, ok := err.(*ScriptError); ok {
		if ae, ok := se.Err.(*lua.ApiError); ok {
			return ae.Object.String()
		}
		return se.Message()
	}
	return err.Error()
}

type hostEnv struct{ h *Host }

func (e hostEnv) Output(line string) { e.h.Output(line) }
func (e hostEnv) Logger() *slog.Logger { return e.h.logger }
func (e hostEnv) Generation() scripthost.Generation { return e.h.cfg.generation }
func (e hostEnv) Now() time.Time { return e.h.cfg.now() }
func (e hostEnv) FrameDelta() time.Duration { return e.h.frameDelta }
func (e hostEnv) FrameCount() uint64 { return e.h.frameCount }
func (e hostEnv) Help() []string { return e.h.HelpLines() }

var _ capability.Env = hostEnv{}

func (h *Host) String() string {
	return fmt.Sprintf("script.Host(%s)", h.cfg.generation)
}
