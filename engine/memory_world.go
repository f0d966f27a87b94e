package engine

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Prefab is a template for Spawn. Children are instantiated recursively.
type Prefab struct {
	Name     string
	Scale    Vec3
	Children []Prefab
}

type object struct {
	name      string
	parent    ObjectID
	children  []ObjectID
	transform Transform
	active    bool
}

// MemoryWorld is an in-process World used by the demo host and tests.
// It is not safe for concurrent use; like the registry it belongs to the
// owning script thread.
type MemoryWorld struct {
	objects   map[ObjectID]*object
	roots     []ObjectID
	next      ObjectID
	scene     string
	scenes    map[string]func(*MemoryWorld)
	paused    bool
	timeScale float64
	player    ObjectID
	prefabs   map[string]Prefab
}

// MemoryWorldOption configures a MemoryWorld.
type MemoryWorldOption func(*MemoryWorld)

// WithScene registers a scene builder. The first registered scene is loaded
// by NewMemoryWorld.
func WithScene(name string, build func(*MemoryWorld)) MemoryWorldOption {
	return func(w *MemoryWorld) {
		if w.scene == "" {
			w.scene = name
		}
		w.scenes[name] = build
	}
}

// WithPrefab adds a prefab to the spawn catalog.
func WithPrefab(p Prefab) MemoryWorldOption {
	return func(w *MemoryWorld) { w.prefabs[p.Name] = p }
}

// NewMemoryWorld creates a world and builds its initial scene.
func NewMemoryWorld(opts ...MemoryWorldOption) *MemoryWorld {
	w := &MemoryWorld{
		objects:   make(map[ObjectID]*object),
		scenes:    make(map[string]func(*MemoryWorld)),
		prefabs:   make(map[string]Prefab),
		timeScale: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.scene == "" {
		w.scene = "Main"
	}
	if build, ok := w.scenes[w.scene]; ok && build != nil {
		build(w)
	}
	return w
}

// Create adds an object under parent (NoObject for a root) and returns its ID.
// An unresolved parent creates a root.
func (w *MemoryWorld) Create(name string, parent ObjectID) ObjectID {
	w.next++
	id := w.next
	o := &object{name: name, transform: DefaultTransform(), active: true}
	if p, ok := w.objects[parent]; ok {
		o.parent = parent
		p.children = append(p.children, id)
	} else {
		w.roots = append(w.roots, id)
	}
	w.objects[id] = o
	return id
}

// SetPlayer marks id as the player object.
func (w *MemoryWorld) SetPlayer(id ObjectID) { w.player = id }

// Player returns the player object if it is still alive.
func (w *MemoryWorld) Player() (ObjectID, bool) {
	if !w.Alive(w.player) {
		return NoObject, false
	}
	return w.player, true
}

// Roots returns the root objects in creation order.
func (w *MemoryWorld) Roots() []ObjectID { return slices.Clone(w.roots) }

// Len returns the number of live objects.
func (w *MemoryWorld) Len() int { return len(w.objects) }

func (w *MemoryWorld) Alive(id ObjectID) bool {
	_, ok := w.objects[id]
	return ok
}

func (w *MemoryWorld) Name(id ObjectID) string {
	if o, ok := w.objects[id]; ok {
		return o.name
	}
	return ""
}

func (w *MemoryWorld) Transform(id ObjectID) (Transform, bool) {
	o, ok := w.objects[id]
	if !ok {
		return Transform{}, false
	}
	return o.transform, true
}

func (w *MemoryWorld) SetTransform(id ObjectID, t Transform) bool {
	o, ok := w.objects[id]
	if !ok {
		return false
	}
	o.transform = t
	return true
}

func (w *MemoryWorld) Active(id ObjectID) bool {
	o, ok := w.objects[id]
	return ok && o.active
}

func (w *MemoryWorld) SetActive(id ObjectID, active bool) {
	if o, ok := w.objects[id]; ok {
		o.active = active
	}
}

func (w *MemoryWorld) Parent(id ObjectID) (ObjectID, bool) {
	o, ok := w.objects[id]
	if !ok || o.parent == NoObject {
		return NoObject, false
	}
	return o.parent, true
}

func (w *MemoryWorld) Children(id ObjectID) []ObjectID {
	if o, ok := w.objects[id]; ok {
		return slices.Clone(o.children)
	}
	return nil
}

// Destroy removes id and its whole subtree.
func (w *MemoryWorld) Destroy(id ObjectID) {
	o, ok := w.objects[id]
	if !ok {
		return
	}
	for _, c := range slices.Clone(o.children) {
		w.Destroy(c)
	}
	if p, ok := w.objects[o.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c ObjectID) bool { return c == id })
	} else {
		w.roots = slices.DeleteFunc(w.roots, func(c ObjectID) bool { return c == id })
	}
	delete(w.objects, id)
}

// Find resolves a path such as "Level/Door/Handle" from the roots, or the
// first object with a matching name in creation order.
func (w *MemoryWorld) Find(nameOrPath string) (ObjectID, bool) {
	if nameOrPath == "" {
		return NoObject, false
	}
	if strings.Contains(nameOrPath, "/") {
		return w.findPath(strings.Split(nameOrPath, "/"))
	}
	ids := make([]ObjectID, 0, len(w.objects))
	for id, o := range w.objects {
		if o.name == nameOrPath {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return NoObject, false
	}
	return slices.Min(ids), true
}

func (w *MemoryWorld) findPath(parts []string) (ObjectID, bool) {
	level := w.roots
	var found ObjectID
	for _, part := range parts {
		found = NoObject
		for _, id := range level {
			if w.objects[id].name == part {
				found = id
				break
			}
		}
		if found == NoObject {
			return NoObject, false
		}
		level = w.objects[found].children
	}
	return found, true
}

// SceneName returns the active scene.
func (w *MemoryWorld) SceneName() string { return w.scene }

// LoadScene discards every object and builds the named scene.
func (w *MemoryWorld) LoadScene(name string) error {
	build, ok := w.scenes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	w.objects = make(map[ObjectID]*object)
	w.roots = nil
	w.player = NoObject
	w.scene = name
	if build != nil {
		build(w)
	}
	return nil
}

func (w *MemoryWorld) Paused() bool { return w.paused || w.timeScale == 0 }
func (w *MemoryWorld) SetPaused(p bool) { w.paused = p }
func (w *MemoryWorld) TimeScale() float64 { return w.timeScale }

// SetTimeScale sets the simulation speed; negative values are clamped to 0.
func (w *MemoryWorld) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	w.timeScale = scale
}

// Prefabs lists the spawn catalog in name order.
func (w *MemoryWorld) Prefabs() []string {
	names := make([]string, 0, len(w.prefabs))
	for n := range w.prefabs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Spawn instantiates a prefab as a new root named "<prefab>(Clone)".
func (w *MemoryWorld) Spawn(prefab string, at Vec3) (ObjectID, error) {
	p, ok := w.prefabs[prefab]
	if !ok {
		return NoObject, fmt.Errorf("%w: %s", ErrUnknownPrefab, prefab)
	}
	id := w.instantiate(p, NoObject, p.Name+"(Clone)")
	w.objects[id].transform.Position = at
	return id, nil
}

func (w *MemoryWorld) instantiate(p Prefab, parent ObjectID, name string) ObjectID {
	id := w.Create(name, parent)
	if p.Scale != Zero {
		w.objects[id].transform.Scale = p.Scale
	}
	for _, c := range p.Children {
		w.instantiate(c, id, c.Name)
	}
	return id
}

var (
	_ World     = (*MemoryWorld)(nil)
	_ Scene     = (*MemoryWorld)(nil)
	_ Spawner   = (*MemoryWorld)(nil)
	_ Hierarchy = (*MemoryWorld)(nil)
)
