package ui

// DrawKind identifies a recorded Frame call.
type DrawKind int

const (
	DrawWindow DrawKind = iota
	DrawTabs
	DrawLabel
	DrawToggle
	DrawButton
)

// DrawCall is one recorded Frame call.
type DrawCall struct {
	Kind      DrawKind
	Panel     string
	Text      string
	Value     bool
	Disabled  bool
	Rect      Rect
	Collapsed bool
	Tabs      []string
	Selected  int
}

type elementKey struct {
	panel, text string
}

// Recorder is a Frame that records draw calls and replays scripted input.
// Queued input is consumed by the first matching element drawn.
type Recorder struct {
	calls    []DrawCall
	current  string
	presses  map[elementKey]bool
	toggles  map[elementKey]bool
	tabs     map[string]int
	moves    map[string]Rect
	collapse map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.clearInput()
	return r
}

func (r *Recorder) clearInput() {
	r.presses = make(map[elementKey]bool)
	r.toggles = make(map[elementKey]bool)
	r.tabs = make(map[string]int)
	r.moves = make(map[string]Rect)
	r.collapse = make(map[string]bool)
}

// Reset discards recorded calls. Pending input is kept.
func (r *Recorder) Reset() { r.calls = nil }

// Press queues a click on the button labelled text in panel.
func (r *Recorder) Press(panel, text string) { r.presses[elementKey{panel, text}] = true }

// SetToggle queues a selector change.
func (r *Recorder) SetToggle(panel, text string, v bool) { r.toggles[elementKey{panel, text}] = v }

// PickTab queues a tab selection.
func (r *Recorder) PickTab(panel string, index int) { r.tabs[panel] = index }

// Drag queues a move or resize of panel.
func (r *Recorder) Drag(panel string, rect Rect) { r.moves[panel] = rect }

// Fold queues a collapse state change.
func (r *Recorder) Fold(panel string, collapsed bool) { r.collapse[panel] = collapsed }

// Calls returns every call recorded since the last Reset.
func (r *Recorder) Calls() []DrawCall { return r.calls }

// Windows returns the names of the panels drawn.
func (r *Recorder) Windows() []string {
	var out []string
	for _, c := range r.calls {
		if c.Kind == DrawWindow {
			out = append(out, c.Panel)
		}
	}
	return out
}

// Texts returns the text of every call of kind drawn inside panel.
func (r *Recorder) Texts(panel string, kind DrawKind) []string {
	var out []string
	for _, c := range r.calls {
		if c.Panel == panel && c.Kind == kind {
			out = append(out, c.Text)
		}
	}
	return out
}

func (r *Recorder) Window(name string, rect Rect, collapsed bool) (Rect, bool) {
	r.current = name
	if m, ok := r.moves[name]; ok {
		delete(r.moves, name)
		rect = m
	}
	if c, ok := r.collapse[name]; ok {
		delete(r.collapse, name)
		collapsed = c
	}
	r.calls = append(r.calls, DrawCall{Kind: DrawWindow, Panel: name, Rect: rect, Collapsed: collapsed})
	return rect, collapsed
}

func (r *Recorder) Tabs(panel string, names []string, selected int) int {
	if i, ok := r.tabs[panel]; ok {
		delete(r.tabs, panel)
		selected = i
	}
	r.calls = append(r.calls, DrawCall{Kind: DrawTabs, Panel: panel, Tabs: append([]string(nil), names...), Selected: selected})
	return selected
}

func (r *Recorder) Label(text string, style Style) {
	r.calls = append(r.calls, DrawCall{Kind: DrawLabel, Panel: r.current, Text: text, Disabled: style.Disabled})
}

func (r *Recorder) Toggle(text string, value bool, style Style) bool {
	k := elementKey{r.current, text}
	if v, ok := r.toggles[k]; ok {
		delete(r.toggles, k)
		value = v
	}
	r.calls = append(r.calls, DrawCall{Kind: DrawToggle, Panel: r.current, Text: text, Value: value, Disabled: style.Disabled})
	return value
}

func (r *Recorder) Button(text string, style Style) bool {
	k := elementKey{r.current, text}
	pressed := r.presses[k]
	delete(r.presses, k)
	r.calls = append(r.calls, DrawCall{Kind: DrawButton, Panel: r.current, Text: text, Value: pressed, Disabled: style.Disabled})
	return pressed
}

func (r *Recorder) End() { r.current = "" }

var _ Frame = (*Recorder)(nil)
