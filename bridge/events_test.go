package bridge_test

import (
	"testing"

	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/stretchr/testify/assert"
	lua "github.com/yuin/gopher-lua"
)

func TestEvents_OnOff(t *testing.T) {
	f := newFixture(t)

	f.eval(t, `
		ticks = 0
		id = events.on(events.topics.update, function(dt) ticks = ticks + dt end)
	`)
	f.bus.Publish(event.TopicUpdate, 0.25)
	f.bus.Publish(event.TopicUpdate, 0.25)
	assert.Equal(t, lua.LNumber(0.5), f.eval(t, `return ticks`))

	assert.Equal(t, lua.LTrue, f.eval(t, `return events.off(id)`))
	assert.Equal(t, lua.LFalse, f.eval(t, `return events.off(id)`))
	f.bus.Publish(event.TopicUpdate, 1.0)
	assert.Equal(t, lua.LNumber(0.5), f.eval(t, `return ticks`))
}

func TestEvents_OwnedByGeneration(t *testing.T) {
	f := newFixture(t)
	before := f.bus.Count("")

	f.eval(t, `events.on("update", function() end) events.on("custom", function() end)`)
	assert.Equal(t, before+2, f.bus.Count(""))

	assert.Equal(t, before+2, f.bus.DetachOwner(f.host.Generation()))
	assert.Zero(t, f.bus.Count(""))
}

func TestEvents_HandlerFaultIsContained(t *testing.T) {
	f := newFixture(t)

	f.eval(t, `events.on("update", function() error("bad tick") end)`)
	assert.Equal(t, 1, f.bus.Publish(event.TopicUpdate, 0.1))
	assert.Contains(t, f.lines[len(f.lines)-1], "bad tick")
}

func TestEvents_OutputHandlerDoesNotRecurse(t *testing.T) {
	f := newFixture(t)
	f.echo = true

	f.eval(t, `
		seen = 0
		events.on("output", function(line) seen = seen + 1 print("echo: " .. line) end)
	`)
	f.eval(t, `print("hi")`)

	assert.Equal(t, lua.LNumber(1), f.eval(t, `return seen`))
	assert.Equal(t, []string{"hi", "echo: hi"}, f.lines)
}
