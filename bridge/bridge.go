// Package bridge binds host services into a script generation as the game,
// ui, events and spawn globals.
package bridge

import (
	"errors"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/schema"
	"github.com/reglet-dev/reglet-scripthost/script"
	"github.com/reglet-dev/reglet-scripthost/ui"
)

// Deps are the host services bridges reach. Checker may be nil, in which
// case no optional facility is installed.
type Deps struct {
	World    engine.World
	Registry *ui.Registry
	Bus      *event.Bus
	Schemas  *schema.Registry
	Checker  *capability.Checker
}

// Set holds the bridges installed into one generation.
type Set struct {
	Game   *Game
	UI     *UI
	Events *Events
	Spawn  *Spawn
}

// Install registers every bridge global inside host's bootstrap, so all of
// them are protected for the generation's lifetime.
func Install(host *script.Host, d Deps) (*Set, error) {
	if d.World == nil || d.Registry == nil || d.Bus == nil || d.Schemas == nil {
		return nil, errors.New("bridge: world, registry, bus and schemas are required")
	}

	set := &Set{
		Game:   NewGame(d.World, d.Bus, host.Logger()),
		UI:     NewUI(host, d.Registry, d.Schemas),
		Events: NewEvents(host, d.Bus),
	}
	if d.Checker != nil && d.Checker.Granted(capability.Spawn.Name) {
		set.Spawn = NewSpawn(d.World, d.Checker)
	}

	d.Bus.Subscribe(event.TopicSceneLoaded, host.Generation(), func(event.Event) error {
		set.Game.ClearCache()
		return nil
	})

	err := host.Bootstrap(func() error {
		L := host.State()
		RegisterHandleType(L)
		host.RegisterGlobal("game", set.Game.table(L))
		host.RegisterGlobal("ui", set.UI.table(L))
		host.RegisterGlobal("events", set.Events.table(L))
		host.RegisterGlobal("Status", StatusTable(L))
		host.RegisterGlobal("OptionKind", OptionKindTable(L))
		if set.Spawn != nil {
			host.RegisterGlobal("spawn", set.Spawn.table(L))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
