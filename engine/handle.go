package engine

import "strings"

// Handle is a weak reference to a World object. The zero value and a nil
// *Handle are both valid and behave as dead handles.
//
// Dead handles never fault. Accessors return neutral values: "" for names,
// Zero for position and rotation, One for scale, Forward for direction,
// false for flags and nil for related handles. Mutators are no-ops.
type Handle struct {
	world World
	id    ObjectID
}

// NewHandle wraps id. It returns nil when id does not currently resolve.
func NewHandle(w World, id ObjectID) *Handle {
	if w == nil || id == NoObject || !w.Alive(id) {
		return nil
	}
	return &Handle{world: w, id: id}
}

// ID returns the wrapped object ID, or NoObject for a nil handle.
func (h *Handle) ID() ObjectID {
	if h == nil {
		return NoObject
	}
	return h.id
}

// Alive reports whether the underlying object still exists.
func (h *Handle) Alive() bool {
	return h != nil && h.world != nil && h.world.Alive(h.id)
}

// Name returns the object name.
func (h *Handle) Name() string {
	if !h.Alive() {
		return ""
	}
	return h.world.Name(h.id)
}

// Path returns the slash separated names from the root down to this object.
func (h *Handle) Path() string {
	if !h.Alive() {
		return ""
	}
	var parts []string
	for id, ok := h.id, true; ok; id, ok = h.world.Parent(id) {
		parts = append(parts, h.world.Name(id))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (h *Handle) transform() (Transform, bool) {
	if !h.Alive() {
		return Transform{}, false
	}
	return h.world.Transform(h.id)
}

func (h *Handle) update(fn func(*Transform)) {
	t, ok := h.transform()
	if !ok {
		return
	}
	fn(&t)
	h.world.SetTransform(h.id, t)
}

// Position returns the object position.
func (h *Handle) Position() Vec3 {
	t, ok := h.transform()
	if !ok {
		return Zero
	}
	return t.Position
}

// SetPosition moves the object.
func (h *Handle) SetPosition(p Vec3) {
	h.update(func(t *Transform) { t.Position = p })
}

// Rotation returns the object rotation in Euler degrees.
func (h *Handle) Rotation() Vec3 {
	t, ok := h.transform()
	if !ok {
		return Zero
	}
	return t.Rotation
}

// SetRotation sets the rotation in Euler degrees.
func (h *Handle) SetRotation(euler Vec3) {
	h.update(func(t *Transform) { t.Rotation = euler })
}

// Scale returns the local scale.
func (h *Handle) Scale() Vec3 {
	t, ok := h.transform()
	if !ok {
		return One
	}
	return t.Scale
}

// SetScale sets the local scale.
func (h *Handle) SetScale(s Vec3) {
	h.update(func(t *Transform) { t.Scale = s })
}

// Forward returns the unit vector the object faces.
func (h *Handle) Forward() Vec3 {
	t, ok := h.transform()
	if !ok {
		return Forward
	}
	return QuatFromEuler(t.Rotation).Rotate(Forward)
}

// Active reports whether the object is active.
func (h *Handle) Active() bool {
	if !h.Alive() {
		return false
	}
	return h.world.Active(h.id)
}

// SetActive activates or deactivates the object.
func (h *Handle) SetActive(active bool) {
	if !h.Alive() {
		return
	}
	h.world.SetActive(h.id, active)
}

// Parent returns the parent, or nil for roots and dead handles.
func (h *Handle) Parent() *Handle {
	if !h.Alive() {
		return nil
	}
	p, ok := h.world.Parent(h.id)
	if !ok {
		return nil
	}
	return NewHandle(h.world, p)
}

// ChildCount returns the number of direct children.
func (h *Handle) ChildCount() int {
	if !h.Alive() {
		return 0
	}
	return len(h.world.Children(h.id))
}

// Child returns the i-th direct child (zero based), or nil when out of range.
func (h *Handle) Child(i int) *Handle {
	if !h.Alive() {
		return nil
	}
	children := h.world.Children(h.id)
	if i < 0 || i >= len(children) {
		return nil
	}
	return NewHandle(h.world, children[i])
}

// ChildByName returns the first direct child with the given name.
func (h *Handle) ChildByName(name string) *Handle {
	if !h.Alive() {
		return nil
	}
	for _, c := range h.world.Children(h.id) {
		if h.world.Name(c) == name {
			return NewHandle(h.world, c)
		}
	}
	return nil
}

// Destroy asks the world to destroy the object and its children.
func (h *Handle) Destroy() {
	if !h.Alive() {
		return
	}
	h.world.Destroy(h.id)
}
