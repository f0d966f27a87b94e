package engine_test

import (
	"testing"

	"github.com/reglet-dev/reglet-scripthost/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLevel(t *testing.T) (*engine.MemoryWorld, engine.ObjectID, engine.ObjectID) {
	t.Helper()
	w := engine.NewMemoryWorld()
	level := w.Create("Level", engine.NoObject)
	door := w.Create("Door", level)
	w.Create("Knob", door)
	return w, level, door
}

func TestHandle_StaleHandleReturnsNeutralValues(t *testing.T) {
	w, _, door := newLevel(t)
	h := engine.NewHandle(w, door)
	require.NotNil(t, h)
	h.SetPosition(engine.V(1, 2, 3))
	assert.Equal(t, engine.V(1, 2, 3), h.Position())

	w.Destroy(door)

	assert.False(t, h.Alive())
	assert.Equal(t, engine.Zero, h.Position())
	assert.Equal(t, engine.Zero, h.Rotation())
	assert.Equal(t, engine.One, h.Scale())
	assert.Equal(t, engine.Forward, h.Forward())
	assert.Equal(t, "", h.Name())
	assert.Equal(t, "", h.Path())
	assert.False(t, h.Active())
	assert.Nil(t, h.Parent())
	assert.Nil(t, h.Child(0))
	assert.Equal(t, 0, h.ChildCount())
	assert.NotPanics(t, func() {
		h.SetPosition(engine.One)
		h.SetActive(true)
		h.Destroy()
	})
}

func TestHandle_NilIsDead(t *testing.T) {
	var h *engine.Handle
	assert.False(t, h.Alive())
	assert.Equal(t, engine.Zero, h.Position())
	assert.Equal(t, engine.NoObject, h.ID())
	assert.Nil(t, engine.NewHandle(engine.NewMemoryWorld(), 42))
}

func TestHandle_Hierarchy(t *testing.T) {
	w, level, door := newLevel(t)
	lh := engine.NewHandle(w, level)

	assert.Equal(t, 1, lh.ChildCount())
	dh := lh.ChildByName("Door")
	require.NotNil(t, dh)
	assert.Equal(t, door, dh.ID())
	assert.Equal(t, "Level/Door/Knob", dh.Child(0).Path())
	assert.Equal(t, level, dh.Parent().ID())
	assert.Nil(t, lh.Parent())
	assert.Nil(t, lh.ChildByName("Missing"))
}

func TestHandle_Forward(t *testing.T) {
	w, level, _ := newLevel(t)
	h := engine.NewHandle(w, level)

	h.SetRotation(engine.V(0, 90, 0))
	f := h.Forward()
	assert.InDelta(t, 1, f.X, 1e-9)
	assert.InDelta(t, 0, f.Y, 1e-9)
	assert.InDelta(t, 0, f.Z, 1e-9)
}

func TestHandle_DestroyCascades(t *testing.T) {
	w, level, door := newLevel(t)
	knob, ok := w.Find("Level/Door/Knob")
	require.True(t, ok)

	engine.NewHandle(w, door).Destroy()

	assert.True(t, w.Alive(level))
	assert.False(t, w.Alive(door))
	assert.False(t, w.Alive(knob))
	assert.Empty(t, w.Children(level))
}
