package bridge

import (
	"context"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/engine"
	lua "github.com/yuin/gopher-lua"
)

// Spawn is the optional spawn global. Each call is checked against the
// session's grants.
type Spawn struct {
	world   engine.World
	spawner engine.Spawner
	checker *capability.Checker
}

// NewSpawn returns nil when the world has no prefab catalog.
func NewSpawn(world engine.World, checker *capability.Checker) *Spawn {
	sp, ok := world.(engine.Spawner)
	if !ok {
		return nil
	}
	return &Spawn{world: world, spawner: sp, checker: checker}
}

func (s *Spawn) check(L *lua.LState) {
	if err := s.checker.Check(context.Background(), capability.Spawn.Name); err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func (s *Spawn) table(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"instantiate": func(L *lua.LState) int {
			s.check(L)
			id, err := s.spawner.Spawn(L.CheckString(1), capability.OptVector(L, 2, engine.Zero))
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(PushHandle(L, engine.NewHandle(s.world, id)))
			return 1
		},
		"destroy": func(L *lua.LState) int {
			s.check(L)
			h := handleAt(L, 1)
			alive := h.Alive()
			h.Destroy()
			L.Push(lua.LBool(alive))
			return 1
		},
		"prefabs": func(L *lua.LState) int {
			s.check(L)
			tbl := L.NewTable()
			for _, p := range s.spawner.Prefabs() {
				tbl.Append(lua.LString(p))
			}
			L.Push(tbl)
			return 1
		},
	})
}
