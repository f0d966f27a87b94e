// Package ui holds the identity-addressed registry of panels, tabs and
// options that scripts and host code populate at runtime, and the render pass
// that draws it through an immediate-mode Frame once per frame.
//
// A Registry has no internal locking. It must only be used from the thread
// that also runs the render pass and the script host.
package ui

import (
	"log/slog"
	"strings"

	scripthost "github.com/reglet-dev/reglet-scripthost"
)

// Placement defaults.
const (
	DefaultOrigin = 10
	DefaultGap    = 10
)

var (
	// DefaultMinSize is the smallest rectangle a panel may take.
	DefaultMinSize = Size{W: 200, H: 60}

	// DefaultPanelSize is used for auto-placed panels without an explicit rect.
	DefaultPanelSize = Size{W: 260, H: 180}
)

// Registry is the stateful model of panels, tabs and options.
type Registry struct {
	panels   map[string]*Panel
	order    []string
	cursor   int
	layout   LayoutStore
	boundary *scripthost.Boundary
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLayoutStore sets where panel rectangles are remembered.
func WithLayoutStore(s LayoutStore) RegistryOption {
	return func(r *Registry) { r.layout = s }
}

// WithBoundary sets the fault boundary used for interaction callbacks.
func WithBoundary(b *scripthost.Boundary) RegistryOption {
	return func(r *Registry) { r.boundary = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		panels: make(map[string]*Panel),
		cursor: DefaultOrigin,
		layout: noLayout{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.boundary == nil {
		r.boundary = scripthost.NewBoundary(scripthost.WithBoundaryLogger(r.logger))
	}
	return r
}

// entryConfig collects the optional settings of every Register call. Fields
// that do not apply to the entry being registered are ignored.
type entryConfig struct {
	owner    scripthost.Generation
	rect     *Rect
	minSize  Size
	callback Callback
	value    bool
	hidden   bool
	disabled bool
}

// EntryOption customizes a Register call.
type EntryOption func(*entryConfig)

// WithOwner attributes the entry to a script generation. Entries default to
// the host generation and survive script reloads.
func WithOwner(g scripthost.Generation) EntryOption {
	return func(c *entryConfig) { c.owner = g }
}

// WithRect sets the initial rectangle of a panel.
func WithRect(r Rect) EntryOption {
	return func(c *entryConfig) { c.rect = &r }
}

// WithMinSize sets a panel's minimum size, or the size a tab requests while selected.
func WithMinSize(s Size) EntryOption {
	return func(c *entryConfig) { c.minSize = s }
}

// WithCallback sets the interaction handler of a button or selector.
func WithCallback(cb Callback) EntryOption {
	return func(c *entryConfig) { c.callback = cb }
}

// WithValue sets a selector's initial state.
func WithValue(v bool) EntryOption {
	return func(c *entryConfig) { c.value = v }
}

// WithHidden registers an option with visible=false.
func WithHidden() EntryOption {
	return func(c *entryConfig) { c.hidden = true }
}

// WithDisabled registers an option with enabled=false.
func WithDisabled() EntryOption {
	return func(c *entryConfig) { c.disabled = true }
}

func buildConfig(opts []EntryOption) entryConfig {
	var cfg entryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// RegisterPanel creates a panel. A remembered rectangle wins over WithRect,
// which wins over the left-to-right cascade.
func (r *Registry) RegisterPanel(name string, opts ...EntryOption) Status {
	if blank(name) {
		return InvalidArgument
	}
	if _, exists := r.panels[name]; exists {
		return AlreadyRegistered
	}

	cfg := buildConfig(opts)
	p := &Panel{
		name:    name,
		owner:   cfg.owner,
		minSize: DefaultMinSize.Max(cfg.minSize),
	}

	switch remembered, ok := r.layout.Load(name); {
	case ok:
		p.rect = remembered
	case cfg.rect != nil:
		p.rect = *cfg.rect
	default:
		p.rect = r.place(p.minSize)
		p.autoPlaced = true
	}
	p.rect = p.rect.Clamp(p.MinSize())

	r.panels[name] = p
	r.order = append(r.order, name)
	return Ok
}

// place returns the next cascade slot and advances the cursor.
func (r *Registry) place(minSize Size) Rect {
	s := DefaultPanelSize.Max(minSize)
	rect := Rect{X: r.cursor, Y: DefaultOrigin, W: s.W, H: s.H}
	r.cursor += s.W + DefaultGap
	return rect
}

// RegisterTab adds a tab to a panel.
func (r *Registry) RegisterTab(panel, tab string, opts ...EntryOption) Status {
	if blank(tab) {
		return InvalidArgument
	}
	p, ok := r.panels[panel]
	if !ok {
		return NotFound
	}
	if p.tabIndex(tab) >= 0 {
		return AlreadyRegistered
	}
	p.tabs = append(p.tabs, newTab(tab, buildConfig(opts)))
	p.rect = p.rect.Clamp(p.MinSize())
	return Ok
}

// RegisterOption adds an option of the given kind to a tab.
func (r *Registry) RegisterOption(panel, tab, id, name string, kind Kind, opts ...EntryOption) Status {
	if blank(id) || blank(name) {
		return InvalidArgument
	}
	cfg := buildConfig(opts)
	pl := newPayload(kind, cfg)
	if pl == nil {
		return InvalidArgument
	}
	t, status := r.lookupTab(panel, tab)
	if status != Ok {
		return status
	}
	if _, exists := t.options[id]; exists {
		return AlreadyRegistered
	}
	t.add(&Option{
		id:      id,
		name:    name,
		visible: !cfg.hidden,
		enabled: !cfg.disabled,
		owner:   cfg.owner,
		payload: pl,
	})
	return Ok
}

// RegisterLabel adds a read-only text option.
func (r *Registry) RegisterLabel(panel, tab, id, text string, opts ...EntryOption) Status {
	return r.RegisterOption(panel, tab, id, text, KindLabel, opts...)
}

// RegisterButton adds a button that runs onPress when clicked.
func (r *Registry) RegisterButton(panel, tab, id, text string, onPress Callback, opts ...EntryOption) Status {
	return r.RegisterOption(panel, tab, id, text, KindButton, append(opts, WithCallback(onPress))...)
}

// RegisterSelector adds a toggle that runs onChange with its new value.
func (r *Registry) RegisterSelector(panel, tab, id, text string, initial bool, onChange Callback, opts ...EntryOption) Status {
	return r.RegisterOption(panel, tab, id, text, KindSelector, append(opts, WithValue(initial), WithCallback(onChange))...)
}

// UpdateOption applies the present fields of patch to an existing option.
func (r *Registry) UpdateOption(panel, tab string, patch OptionPatch) Status {
	if blank(patch.OptionID) {
		return InvalidArgument
	}
	o, status := r.lookupOption(panel, tab, patch.OptionID)
	if status != Ok {
		return status
	}
	if status := patch.validate(o); status != Ok {
		return status
	}
	patch.apply(o)
	return Ok
}

// RemoveOption deletes one option.
func (r *Registry) RemoveOption(panel, tab, id string) Status {
	t, status := r.lookupTab(panel, tab)
	if status != Ok {
		return status
	}
	if !t.remove(id) {
		return NotFound
	}
	return Ok
}

// RemoveTab deletes a tab and its options.
func (r *Registry) RemoveTab(panel, tab string) Status {
	p, ok := r.panels[panel]
	if !ok {
		return NotFound
	}
	i := p.tabIndex(tab)
	if i < 0 {
		return NotFound
	}
	p.removeTabAt(i)
	return Ok
}

// RemovePanel deletes a panel with all of its tabs and options.
func (r *Registry) RemovePanel(name string) Status {
	if _, ok := r.panels[name]; !ok {
		return NotFound
	}
	delete(r.panels, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return Ok
}

// RemoveAll clears the registry and resets auto-placement.
func (r *Registry) RemoveAll() {
	r.panels = make(map[string]*Panel)
	r.order = nil
	r.cursor = DefaultOrigin
}

// RemoveScriptOwned removes every panel, tab and option registered by a
// script generation. Host entries stay; the cascade cursor continues after
// the remaining auto-placed panels. It returns the number of removed panels.
func (r *Registry) RemoveScriptOwned() int {
	removed := 0
	for _, name := range append([]string(nil), r.order...) {
		p := r.panels[name]
		if !p.owner.IsHost() {
			r.RemovePanel(name)
			removed++
			continue
		}
		for i := len(p.tabs) - 1; i >= 0; i-- {
			if !p.tabs[i].owner.IsHost() {
				p.removeTabAt(i)
				continue
			}
			p.tabs[i].pruneScriptOwned()
		}
	}

	r.cursor = DefaultOrigin
	for _, name := range r.order {
		if p := r.panels[name]; p.autoPlaced {
			r.cursor = max(r.cursor, p.rect.X+p.rect.W+DefaultGap)
		}
	}
	if removed > 0 {
		r.logger.Debug("removed script panels", "count", removed)
	}
	return removed
}

// MovePanel sets a panel's rectangle, clamped to its minimum size, and
// remembers it in the layout store.
func (r *Registry) MovePanel(name string, rect Rect) Status {
	p, ok := r.panels[name]
	if !ok {
		return NotFound
	}
	r.move(p, rect)
	return Ok
}

func (r *Registry) move(p *Panel, rect Rect) {
	p.rect = rect.Clamp(p.MinSize())
	if err := r.layout.Save(p.name, p.rect); err != nil {
		r.logger.Warn("failed to save panel layout", "panel", p.name, "error", err)
	}
}

// SetCollapsed folds or unfolds a panel.
func (r *Registry) SetCollapsed(name string, collapsed bool) Status {
	p, ok := r.panels[name]
	if !ok {
		return NotFound
	}
	p.collapsed = collapsed
	return Ok
}

// SelectTab makes tab the one drawn for panel.
func (r *Registry) SelectTab(panel, tab string) Status {
	p, ok := r.panels[panel]
	if !ok {
		return NotFound
	}
	i := p.tabIndex(tab)
	if i < 0 {
		return NotFound
	}
	p.selected = i
	p.rect = p.rect.Clamp(p.MinSize())
	return Ok
}

// HasPanel reports whether a panel is registered.
func (r *Registry) HasPanel(name string) bool {
	_, ok := r.panels[name]
	return ok
}

// HasTab reports whether panel has a tab named tab.
func (r *Registry) HasTab(panel, tab string) bool {
	_, status := r.lookupTab(panel, tab)
	return status == Ok
}

// HasOption reports whether the option exists, visible or not.
func (r *Registry) HasOption(panel, tab, id string) bool {
	_, status := r.lookupOption(panel, tab, id)
	return status == Ok
}

// Panel returns the named panel.
func (r *Registry) Panel(name string) (*Panel, bool) {
	p, ok := r.panels[name]
	return p, ok
}

// Option returns the addressed option.
func (r *Registry) Option(panel, tab, id string) (*Option, bool) {
	o, status := r.lookupOption(panel, tab, id)
	return o, status == Ok
}

// Panels returns the panels in registration order.
func (r *Registry) Panels() []*Panel {
	out := make([]*Panel, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.panels[n])
	}
	return out
}

// Len returns the number of panels.
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) lookupTab(panel, tab string) (*Tab, Status) {
	p, ok := r.panels[panel]
	if !ok {
		return nil, NotFound
	}
	t, ok := p.Tab(tab)
	if !ok {
		return nil, NotFound
	}
	return t, Ok
}

func (r *Registry) lookupOption(panel, tab, id string) (*Option, Status) {
	t, status := r.lookupTab(panel, tab)
	if status != Ok {
		return nil, status
	}
	o, ok := t.options[id]
	if !ok {
		return nil, NotFound
	}
	return o, Ok
}
