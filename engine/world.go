// Package engine models the host engine's object space as seen by scripts.
// Objects are owned by a World and referenced only through weak Handles that
// re-check liveness on every access.
package engine

import "errors"

// ObjectID identifies an object in a World. IDs are never reused, so a stale
// ID simply stops resolving.
type ObjectID uint64

// NoObject is the zero ObjectID and never resolves.
const NoObject ObjectID = 0

// Transform is the spatial state of an object. Rotation is Euler degrees.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// DefaultTransform places an object at the origin with unit scale.
func DefaultTransform() Transform {
	return Transform{Scale: One}
}

// World is the narrow view of the host engine needed by handles. Every
// method must tolerate IDs that no longer resolve.
type World interface {
	Alive(id ObjectID) bool
	Name(id ObjectID) string
	Transform(id ObjectID) (Transform, bool)
	SetTransform(id ObjectID, t Transform) bool
	Active(id ObjectID) bool
	SetActive(id ObjectID, active bool)
	Parent(id ObjectID) (ObjectID, bool)
	Children(id ObjectID) []ObjectID
	Destroy(id ObjectID)
	// Find resolves an object by name, or by a slash separated path from a root.
	Find(nameOrPath string) (ObjectID, bool)
}

// Scene exposes scene level state. Worlds implement it optionally.
type Scene interface {
	SceneName() string
	LoadScene(name string) error
	Paused() bool
	TimeScale() float64
	SetTimeScale(scale float64)
	Player() (ObjectID, bool)
}

// Spawner instantiates objects from a prefab catalog. Worlds implement it optionally.
type Spawner interface {
	Prefabs() []string
	Spawn(prefab string, at Vec3) (ObjectID, error)
}

// Hierarchy lists the root objects of a world. Worlds implement it optionally.
type Hierarchy interface {
	Roots() []ObjectID
}

var (
	// ErrUnknownPrefab is returned when a prefab name is not in the catalog.
	ErrUnknownPrefab = errors.New("unknown prefab")

	// ErrUnknownScene is returned when no scene is registered under a name.
	ErrUnknownScene = errors.New("unknown scene")
)
