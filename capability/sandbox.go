package capability

import lua "github.com/yuin/gopher-lua"

// StrippedGlobals are removed from the base library after it is opened.
// They reach the filesystem, the loader, the collector or the environment of
// other functions.
var StrippedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"collectgarbage",
	"rawset",
	"setfenv",
	"getfenv",
	"newproxy",
}

// NewSandboxState returns an interpreter with only the base, table, string
// and math libraries opened and StrippedGlobals removed. The io, os,
// package, debug, channel and coroutine libraries are never opened.
func NewSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range StrippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
