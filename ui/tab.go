package ui

import scripthost "github.com/reglet-dev/reglet-scripthost"

// Tab groups options inside a Panel. Options keep insertion order.
type Tab struct {
	name    string
	owner   scripthost.Generation
	minSize Size
	order   []string
	options map[string]*Option
}

func newTab(name string, cfg entryConfig) *Tab {
	return &Tab{
		name:    name,
		owner:   cfg.owner,
		minSize: cfg.minSize,
		options: make(map[string]*Option),
	}
}

// Name returns the tab name.
func (t *Tab) Name() string { return t.name }

// Owner returns the generation that registered the tab.
func (t *Tab) Owner() scripthost.Generation { return t.owner }

// Len returns the number of options.
func (t *Tab) Len() int { return len(t.order) }

// Option returns the option registered under id.
func (t *Tab) Option(id string) (*Option, bool) {
	o, ok := t.options[id]
	return o, ok
}

// Options returns the options in insertion order.
func (t *Tab) Options() []*Option {
	out := make([]*Option, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.options[id])
	}
	return out
}

func (t *Tab) add(o *Option) {
	t.order = append(t.order, o.id)
	t.options[o.id] = o
}

func (t *Tab) remove(id string) bool {
	if _, ok := t.options[id]; !ok {
		return false
	}
	delete(t.options, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// pruneScriptOwned drops options registered by scripts and reports how many.
func (t *Tab) pruneScriptOwned() int {
	n := 0
	for _, o := range t.Options() {
		if !o.owner.IsHost() {
			t.remove(o.id)
			n++
		}
	}
	return n
}
