package ui

import scripthost "github.com/reglet-dev/reglet-scripthost"

// Panel is a named, user-visible container of tabs.
type Panel struct {
	name       string
	rect       Rect
	collapsed  bool
	minSize    Size
	tabs       []*Tab
	selected   int
	owner      scripthost.Generation
	autoPlaced bool
}

// Name returns the panel name, which is unique in its registry.
func (p *Panel) Name() string { return p.name }

// Rect returns the current on-screen rectangle.
func (p *Panel) Rect() Rect { return p.rect }

// Collapsed reports whether only the chrome is drawn.
func (p *Panel) Collapsed() bool { return p.collapsed }

// Owner returns the generation that registered the panel.
func (p *Panel) Owner() scripthost.Generation { return p.owner }

// Tabs returns the tabs in registration order.
func (p *Panel) Tabs() []*Tab {
	out := make([]*Tab, len(p.tabs))
	copy(out, p.tabs)
	return out
}

// Tab returns the tab with the given name.
func (p *Panel) Tab(name string) (*Tab, bool) {
	i := p.tabIndex(name)
	if i < 0 {
		return nil, false
	}
	return p.tabs[i], true
}

// SelectedTab returns the tab being drawn, or nil when the panel has none.
func (p *Panel) SelectedTab() *Tab {
	if len(p.tabs) == 0 {
		return nil
	}
	return p.tabs[p.selected]
}

// MinSize is the effective minimum: the panel policy grown by the selected
// tab's request.
func (p *Panel) MinSize() Size {
	if t := p.SelectedTab(); t != nil {
		return p.minSize.Max(t.minSize)
	}
	return p.minSize
}

func (p *Panel) tabIndex(name string) int {
	for i, t := range p.tabs {
		if t.name == name {
			return i
		}
	}
	return -1
}

func (p *Panel) removeTabAt(i int) {
	p.tabs = append(p.tabs[:i], p.tabs[i+1:]...)
	switch {
	case p.selected > i:
		p.selected--
	case p.selected >= len(p.tabs):
		p.selected = max(len(p.tabs)-1, 0)
	}
	p.rect = p.rect.Clamp(p.MinSize())
}

func (p *Panel) tabNames() []string {
	names := make([]string, len(p.tabs))
	for i, t := range p.tabs {
		names[i] = t.name
	}
	return names
}
