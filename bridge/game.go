package bridge

import (
	"log/slog"
	"path"

	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/reglet-dev/reglet-scripthost/event"
	lua "github.com/yuin/gopher-lua"
)

// Game exposes world queries to scripts as the game global.
type Game struct {
	world  engine.World
	scene  engine.Scene
	bus    *event.Bus
	logger *slog.Logger
	cache  map[string]engine.ObjectID
}

// NewGame builds the game bridge. Scene functions report neutral values
// when world does not implement engine.Scene.
func NewGame(world engine.World, bus *event.Bus, logger *slog.Logger) *Game {
	g := &Game{
		world:  world,
		bus:    bus,
		logger: logger,
		cache:  make(map[string]engine.ObjectID),
	}
	g.scene, _ = world.(engine.Scene)
	return g
}

// ClearCache drops every cached lookup.
func (g *Game) ClearCache() {
	clear(g.cache)
}

// CacheLen returns the number of cached lookups.
func (g *Game) CacheLen() int { return len(g.cache) }

// Find resolves a name or path. A cached hit is used only while the object
// is alive and still carries the looked-up name.
func (g *Game) Find(nameOrPath string) *engine.Handle {
	if id, ok := g.cache[nameOrPath]; ok {
		if g.world.Alive(id) && g.world.Name(id) == path.Base(nameOrPath) {
			return engine.NewHandle(g.world, id)
		}
		delete(g.cache, nameOrPath)
	}
	id, ok := g.world.Find(nameOrPath)
	if !ok {
		return nil
	}
	g.cache[nameOrPath] = id
	return engine.NewHandle(g.world, id)
}

// Player returns the player object, or nil.
func (g *Game) Player() *engine.Handle {
	if g.scene == nil {
		return nil
	}
	id, ok := g.scene.Player()
	if !ok {
		return nil
	}
	return engine.NewHandle(g.world, id)
}

// LoadScene switches scenes, clears the lookup cache and publishes
// sceneLoaded.
func (g *Game) LoadScene(name string) error {
	if g.scene == nil {
		return engine.ErrUnknownScene
	}
	if err := g.scene.LoadScene(name); err != nil {
		return err
	}
	g.ClearCache()
	g.logger.Info("scene loaded", "scene", name)
	if g.bus != nil {
		g.bus.Publish(event.TopicSceneLoaded, name)
	}
	return nil
}

func (g *Game) table(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"find": func(L *lua.LState) int {
			L.Push(PushHandle(L, g.Find(L.CheckString(1))))
			return 1
		},
		"player": func(L *lua.LState) int {
			L.Push(PushHandle(L, g.Player()))
			return 1
		},
		"scene": func(L *lua.LState) int {
			if g.scene == nil {
				L.Push(lua.LString(""))
			} else {
				L.Push(lua.LString(g.scene.SceneName()))
			}
			return 1
		},
		"isPaused": func(L *lua.LState) int {
			L.Push(lua.LBool(g.scene != nil && g.scene.Paused()))
			return 1
		},
		"timeScale": func(L *lua.LState) int {
			if g.scene == nil {
				L.Push(lua.LNumber(1))
			} else {
				L.Push(lua.LNumber(g.scene.TimeScale()))
			}
			return 1
		},
		"setTimeScale": func(L *lua.LState) int {
			if g.scene != nil {
				g.scene.SetTimeScale(float64(L.CheckNumber(1)))
			}
			return 0
		},
		"loadScene": func(L *lua.LState) int {
			if err := g.LoadScene(L.CheckString(1)); err != nil {
				L.Push(lua.LFalse)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(lua.LTrue)
			return 1
		},
	})
}
