// Package capability defines what a script sandbox is allowed to name.
//
// A Whitelist is the fixed, enumerable surface of {type, static-function}
// entries bound into every sandbox generation. Optional bridge facilities sit
// behind grants that the gatekeeper hands out per security level.
package capability

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	scripthost "github.com/reglet-dev/reglet-scripthost"
	lua "github.com/yuin/gopher-lua"
)

// Env is the per-generation context bound functions may use.
type Env interface {
	// Output writes a line to the console output channel.
	Output(line string)
	Logger() *slog.Logger
	Generation() scripthost.Generation
	Now() time.Time
	FrameDelta() time.Duration
	FrameCount() uint64
	// Help returns one line per reachable global.
	Help() []string
}

// Factory binds a whitelisted function to one generation's Env.
type Factory func(env Env) lua.LGFunction

// Entry is one whitelisted function. An empty Type makes Function a global;
// otherwise it is a static function of the global table Type. A Call entry
// is also reachable by calling the type table itself, as in Vector3(1, 2, 3).
// A Command entry is a global the console calls when its bare name is
// entered, as in help.
type Entry struct {
	Type     string
	Function string
	Doc      string
	Call     bool
	Command  bool
	Factory  Factory
}

// Name returns the script-visible name, such as "Vector3.lerp".
func (e Entry) Name() string {
	if e.Type == "" {
		return e.Function
	}
	return e.Type + "." + e.Function
}

// Global returns the global identifier the entry occupies.
func (e Entry) Global() string {
	if e.Type == "" {
		return e.Function
	}
	return e.Type
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Whitelist is immutable after construction and safe for concurrent reads.
type Whitelist struct {
	entries   []Entry
	protected map[string]struct{}
	types     map[string][]Entry
	functions []Entry
	commands  map[string]struct{}
}

// WhitelistOption configures NewWhitelist.
type WhitelistOption func(*whitelistConfig)

type whitelistConfig struct {
	entries []Entry
	extra   []string
}

// WithEntries adds entries to the whitelist.
func WithEntries(entries ...Entry) WhitelistOption {
	return func(c *whitelistConfig) { c.entries = append(c.entries, entries...) }
}

// WithProtectedNames protects globals that are installed by other means,
// such as the interpreter's own math library.
func WithProtectedNames(names ...string) WhitelistOption {
	return func(c *whitelistConfig) { c.extra = append(c.extra, names...) }
}

// NewWhitelist validates and freezes a set of entries. Every global an entry
// occupies is protected.
func NewWhitelist(opts ...WhitelistOption) (*Whitelist, error) {
	var cfg whitelistConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Whitelist{
		protected: make(map[string]struct{}),
		types:     make(map[string][]Entry),
		commands:  make(map[string]struct{}),
	}
	seen := make(map[string]bool)
	for _, e := range cfg.entries {
		if !identifier.MatchString(e.Function) || (e.Type != "" && !identifier.MatchString(e.Type)) {
			return nil, fmt.Errorf("invalid whitelist entry name %q", e.Name())
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("whitelist entry %s has no factory", e.Name())
		}
		if seen[e.Name()] {
			return nil, fmt.Errorf("duplicate whitelist entry %s", e.Name())
		}
		seen[e.Name()] = true
		if e.Command && e.Type != "" {
			return nil, fmt.Errorf("whitelist command %s must be a global function", e.Name())
		}
		if e.Type == "" {
			w.functions = append(w.functions, e)
			if e.Command {
				w.commands[e.Function] = struct{}{}
			}
		} else {
			w.types[e.Type] = append(w.types[e.Type], e)
		}
		w.entries = append(w.entries, e)
		w.protected[e.Global()] = struct{}{}
	}
	for _, f := range w.functions {
		if _, clash := w.types[f.Function]; clash {
			return nil, fmt.Errorf("whitelist function %s clashes with type", f.Function)
		}
	}
	for _, n := range cfg.extra {
		w.protected[n] = struct{}{}
	}
	return w, nil
}

// MustWhitelist is NewWhitelist that panics on error.
func MustWhitelist(opts ...WhitelistOption) *Whitelist {
	w, err := NewWhitelist(opts...)
	if err != nil {
		panic(err)
	}
	return w
}

// Entries returns a copy of the entries in registration order.
func (w *Whitelist) Entries() []Entry {
	return append([]Entry(nil), w.entries...)
}

// IsProtected reports whether name may only be written during bootstrap.
func (w *Whitelist) IsProtected(name string) bool {
	_, ok := w.protected[name]
	return ok
}

// IsCommand reports whether the console calls name when it is entered bare.
func (w *Whitelist) IsCommand(name string) bool {
	_, ok := w.commands[name]
	return ok
}

// Protected returns the protected globals in sorted order.
func (w *Whitelist) Protected() []string {
	out := make([]string, 0, len(w.protected))
	for n := range w.protected {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HelpLines returns one "name  doc" line per entry, sorted by name.
func (w *Whitelist) HelpLines() []string {
	lines := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		line := e.Name()
		if e.Doc != "" {
			line += "  " + e.Doc
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return strings.ToLower(lines[i]) < strings.ToLower(lines[j])
	})
	return lines
}

// Install binds every entry into target, replacing whatever a previous
// install left there. Nothing outside the entries is added. Install keeps no
// state, so installing into a fresh generation cannot reach the old one.
func (w *Whitelist) Install(L *lua.LState, target *lua.LTable, env Env) {
	RegisterValueTypes(L)

	for _, e := range w.functions {
		target.RawSetString(e.Function, L.NewFunction(e.Factory(env)))
	}

	types := make([]string, 0, len(w.types))
	for t := range w.types {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, typ := range types {
		tbl := L.NewTable()
		for _, e := range w.types[typ] {
			fn := L.NewFunction(e.Factory(env))
			tbl.RawSetString(e.Function, fn)
			if e.Call {
				mt := L.NewTable()
				mt.RawSetString("__call", L.NewFunction(dropSelf(fn)))
				L.SetMetatable(tbl, mt)
			}
		}
		target.RawSetString(typ, tbl)
	}
}

// dropSelf adapts fn for use as __call, which receives the table first.
func dropSelf(fn *lua.LFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		top := L.GetTop()
		L.Push(fn)
		for i := 2; i <= top; i++ {
			L.Push(L.Get(i))
		}
		L.Call(top-1, lua.MultRet)
		return L.GetTop() - top
	}
}
