package layout

import "github.com/reglet-dev/reglet-scripthost/ui"

// MemoryStore is a LayoutStore that forgets everything at exit.
type MemoryStore struct {
	panels map[string]ui.Rect
	saves  int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{panels: make(map[string]ui.Rect)}
}

func (m *MemoryStore) Load(name string) (ui.Rect, bool) {
	r, ok := m.panels[name]
	return r, ok
}

func (m *MemoryStore) Save(name string, r ui.Rect) error {
	m.panels[name] = r
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int { return m.saves }

var _ ui.LayoutStore = (*MemoryStore)(nil)
