package bridge_test

import (
	"testing"

	"github.com/reglet-dev/reglet-scripthost/event"
	"github.com/stretchr/testify/assert"
	lua "github.com/yuin/gopher-lua"
)

func TestGame_FindAndHandles(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, lua.LString("Level/Door/Knob"), f.eval(t, `return game.find("Level/Door/Knob"):GetPath()`))
	assert.Equal(t, lua.LString("Door"), f.eval(t, `return game.find("Knob"):GetParent():GetName()`))
	assert.Equal(t, lua.LNumber(1), f.eval(t, `return game.find("Door"):GetChildCount()`))
	assert.Equal(t, lua.LString("Knob"), f.eval(t, `return game.find("Door"):GetChild(0):GetName()`))
	assert.Equal(t, lua.LNil, f.eval(t, `return game.find("Door"):GetChild(5)`))
	assert.Equal(t, lua.LString("Door"), f.eval(t, `return game.find("Level"):GetChildByName("Door"):GetName()`))
	assert.Equal(t, lua.LNil, f.eval(t, `return game.find("Nope")`))
	assert.Equal(t, lua.LString("Player"), f.eval(t, `return game.player():GetName()`))
	assert.Equal(t, lua.LTrue, f.eval(t, `return game.find("Door") == game.find("Level/Door")`))
}

func TestGame_TransformRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.eval(t, `
		local d = game.find("Door")
		d:SetPosition(Vector3(1, 2, 3))
		d:SetScale({2, 2, 2})
		d:SetRotationEuler(Vector3(0, 90, 0))
		d:SetActive(false)
	`)
	assert.Equal(t, lua.LNumber(2), f.eval(t, `return game.find("Door"):GetPosition().y`))
	assert.Equal(t, lua.LNumber(2), f.eval(t, `return game.find("Door"):GetScale().x`))
	assert.Equal(t, lua.LFalse, f.eval(t, `return game.find("Door"):IsActive()`))

	x := f.eval(t, `return game.find("Door"):GetForward().x`)
	assert.InDelta(t, 1, float64(x.(lua.LNumber)), 1e-9)
}

func TestGame_StaleHandleIsNeutral(t *testing.T) {
	f := newFixture(t)

	f.eval(t, `door = game.find("Door") door:SetPosition(Vector3(5, 5, 5)) door:Destroy()`)

	tests := []struct {
		expr string
		want lua.LValue
	}{
		{"door:IsAlive()", lua.LFalse},
		{"door:GetName()", lua.LString("")},
		{"door:GetPath()", lua.LString("")},
		{"door:GetPosition() == Vector3.zero()", lua.LTrue},
		{"door:GetRotationEuler() == Vector3.zero()", lua.LTrue},
		{"door:GetScale() == Vector3.one()", lua.LTrue},
		{"door:GetForward() == Vector3.forward()", lua.LTrue},
		{"door:IsActive()", lua.LFalse},
		{"door:GetParent()", lua.LNil},
		{"door:GetChild(0)", lua.LNil},
		{"door:GetChildByName('Knob')", lua.LNil},
		{"door:GetChildCount()", lua.LNumber(0)},
		{"tostring(door)", lua.LString("Handle(dead)")},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, f.eval(t, "return "+tt.expr))
		})
	}

	f.eval(t, `door:SetPosition(Vector3.one()) door:SetActive(true) door:Destroy()`)
	assert.Equal(t, lua.LNil, f.eval(t, `return game.find("Knob")`))
}

func TestGame_FindCacheRevalidates(t *testing.T) {
	f := newFixture(t)

	f.eval(t, `return game.find("Door")`)
	assert.Equal(t, 1, f.set.Game.CacheLen())

	f.eval(t, `game.find("Door"):Destroy()`)
	assert.Equal(t, lua.LNil, f.eval(t, `return game.find("Door")`))
	assert.Zero(t, f.set.Game.CacheLen())
}

func TestGame_LoadSceneClearsCacheAndPublishes(t *testing.T) {
	f := newFixture(t)
	var loaded []string
	f.bus.Subscribe(event.TopicSceneLoaded, 0, func(ev event.Event) error {
		loaded = append(loaded, ev.Payload.(string))
		return nil
	})

	f.eval(t, `return game.find("Door")`)
	assert.Equal(t, lua.LTrue, f.eval(t, `return game.loadScene("Arena")`))
	assert.Equal(t, []string{"Arena"}, loaded)
	assert.Zero(t, f.set.Game.CacheLen())
	assert.Equal(t, lua.LString("Arena"), f.eval(t, `return game.scene()`))
	assert.Equal(t, lua.LNil, f.eval(t, `return game.find("Door")`))

	res := f.host.Execute(`return game.loadScene("Nowhere")`)
	assert.Equal(t, []string{"false", "unknown scene: Nowhere"}, res.Text)
}

func TestGame_TimeScale(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, lua.LFalse, f.eval(t, `return game.isPaused()`))
	f.eval(t, `game.setTimeScale(0)`)
	assert.Equal(t, lua.LTrue, f.eval(t, `return game.isPaused()`))
	f.eval(t, `game.setTimeScale(-3)`)
	assert.Equal(t, lua.LNumber(0), f.eval(t, `return game.timeScale()`))
	f.eval(t, `game.setTimeScale(2)`)
	assert.Equal(t, lua.LNumber(2), f.eval(t, `return game.timeScale()`))
}
