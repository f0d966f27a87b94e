package bridge

import (
	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/reglet-dev/reglet-scripthost/script"
	lua "github.com/yuin/gopher-lua"
)

// Events is the events global: on(topic, fn) and off(id).
type Events struct {
	host *script.Host
	bus  *event.Bus
	subs map[uint64]event.Subscription
	// delivering guards against a handler re-triggering its own topic,
	// as a print inside an output handler would.
	delivering map[string]bool
}

// NewEvents builds the events bridge over bus.
func NewEvents(host *script.Host, bus *event.Bus) *Events {
	return &Events{
		host:       host,
		bus:        bus,
		subs:       make(map[uint64]event.Subscription),
		delivering: make(map[string]bool),
	}
}

// On subscribes fn to topic on behalf of the host's generation.
func (e *Events) On(topic string, fn *lua.LFunction) uint64 {
	ref := e.host.Capture(fn)
	sub := e.bus.Subscribe(topic, e.host.Generation(), func(ev event.Event) error {
		if e.delivering[ev.Topic] {
			return nil
		}
		e.delivering[ev.Topic] = true
		defer delete(e.delivering, ev.Topic)
		return e.host.Call(ref, ev.Payload).Err
	})
	e.subs[sub.ID] = sub
	return sub.ID
}

// Off removes a subscription made by On.
func (e *Events) Off(id uint64) bool {
	sub, ok := e.subs[id]
	if !ok {
		return false
	}
	delete(e.subs, id)
	return sub.Unsubscribe()
}

func (e *Events) table(L *lua.LState) *lua.LTable {
	topics := L.NewTable()
	for _, t := range []string{event.TopicUpdate, event.TopicSceneLoaded, event.TopicOutput} {
		topics.RawSetString(t, lua.LString(t))
	}

	tbl := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"on": func(L *lua.LState) int {
			L.Push(lua.LNumber(e.On(L.CheckString(1), L.CheckFunction(2))))
			return 1
		},
		"off": func(L *lua.LState) int {
			L.Push(lua.LBool(e.Off(uint64(L.CheckInt64(1)))))
			return 1
		},
	})
	tbl.RawSetString("topics", topics)
	return tbl
}
