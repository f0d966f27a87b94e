package ui

import (
	"context"
	"slices"
)

// Render draws every panel through f. Interaction callbacks run inside the
// registry's fault boundary; a failing callback never stops the frame.
// Callbacks may mutate the registry while the pass is running.
func (r *Registry) Render(f Frame) {
	for _, name := range slices.Clone(r.order) {
		p, ok := r.panels[name]
		if !ok {
			continue
		}
		r.renderPanel(f, p)
	}
}

func (r *Registry) renderPanel(f Frame, p *Panel) {
	rect, collapsed := f.Window(p.name, p.rect, p.collapsed)
	defer f.End()

	p.collapsed = collapsed
	if rect != p.rect {
		r.move(p, rect)
	}
	if p.collapsed || len(p.tabs) == 0 {
		return
	}

	if len(p.tabs) > 1 {
		if sel := f.Tabs(p.name, p.tabNames(), p.selected); sel != p.selected && sel >= 0 && sel < len(p.tabs) {
			p.selected = sel
			p.rect = p.rect.Clamp(p.MinSize())
		}
	}

	tab := p.tabs[p.selected]
	for _, id := range slices.Clone(tab.order) {
		o, ok := tab.options[id]
		if !ok || !o.visible {
			continue
		}
		r.renderOption(f, p, tab, o)
		if !r.attached(p, tab) {
			return
		}
	}
}

func (r *Registry) renderOption(f Frame, p *Panel, t *Tab, o *Option) {
	style := Style{Disabled: !o.enabled}
	switch pl := o.payload.(type) {
	case labelPayload:
		f.Label(o.name, style)
	case *selectorPayload:
		v := f.Toggle(o.name, pl.value, style)
		if o.enabled && v != pl.value {
			pl.value = v
			r.invoke(p, t, o, pl.onChange, v)
		}
	case *buttonPayload:
		if f.Button(o.name, style) && o.enabled {
			r.invoke(p, t, o, pl.onPress)
		}
	}
}

func (r *Registry) invoke(p *Panel, t *Tab, o *Option, cb Callback, args ...any) {
	if cb == nil {
		return
	}
	label := "ui:" + p.name + "/" + t.name + "/" + o.id
	_ = r.boundary.Run(label, func(context.Context) error {
		return cb(args...)
	})
}

// attached reports whether t is still reachable from the registry after a
// callback ran.
func (r *Registry) attached(p *Panel, t *Tab) bool {
	if r.panels[p.name] != p || len(p.tabs) == 0 {
		return false
	}
	return p.tabs[p.selected] == t
}
