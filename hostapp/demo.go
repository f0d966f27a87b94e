package hostapp

import "github.com/reglet-dev/reglet-scripthost/engine"

// NewDemoWorld returns the in-memory world used when no engine is attached.
// It has two scenes and a small prefab catalog.
func NewDemoWorld() *engine.MemoryWorld {
	return engine.NewMemoryWorld(
		engine.WithScene("Main", func(w *engine.MemoryWorld) {
			level := w.Create("Level", engine.NoObject)
			door := w.Create("Door", level)
			w.Create("Handle", door)
			w.Create("Lamp", level)
			w.SetPlayer(w.Create("Player", engine.NoObject))
		}),
		engine.WithScene("Hill", func(w *engine.MemoryWorld) {
			w.Create("Slope", engine.NoObject)
			w.SetPlayer(w.Create("Player", engine.NoObject))
		}),
		engine.WithPrefab(engine.Prefab{Name: "Sled", Children: []engine.Prefab{{Name: "Rider"}}}),
		engine.WithPrefab(engine.Prefab{Name: "Snowball", Scale: engine.V(0.5, 0.5, 0.5)}),
	)
}
