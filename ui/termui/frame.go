// Package termui renders the UI registry into a terminal with lipgloss.
package termui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/reglet-dev/reglet-scripthost/ui"
)

// Catppuccin Mocha subset.
const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorLavender lipgloss.Color = "#b4befe"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorGreen    lipgloss.Color = "#a6e3a1"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(colorPink).Bold(true)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	disabledStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
	focusStyle    = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	tabStyle      = lipgloss.NewStyle().Foreground(colorSubtext0).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true).Underline(true).Padding(0, 1)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
)

// CellWidth is the number of frame units per terminal column.
const CellWidth = 8

const minColumns = 24

// Frame is a ui.Frame that lays panels out top to bottom as bordered boxes.
// Keyboard input moves a focus cursor across interactive elements in draw
// order; an activation is applied to the focused element on the next frame.
type Frame struct {
	focus     int
	count     int
	lastCount int
	pending   int

	width int
	lines []string
	boxes []string
	view  string
}

// New returns a Frame with focus on the first element.
func New() *Frame { return &Frame{pending: -1} }

// Begin starts a new frame.
func (f *Frame) Begin() {
	f.lastCount = f.count
	f.count = 0
	f.boxes = f.boxes[:0]
	if f.focus >= f.lastCount {
		f.focus = 0
	}
}

// Finish completes the frame and captures its view.
func (f *Frame) Finish() {
	f.view = lipgloss.JoinVertical(lipgloss.Left, f.boxes...)
}

// View returns the last finished frame.
func (f *Frame) View() string { return f.view }

// Focus returns the index of the focused element.
func (f *Frame) Focus() int { return f.focus }

// Next moves focus forward, wrapping around.
func (f *Frame) Next() { f.step(1) }

// Prev moves focus backward, wrapping around.
func (f *Frame) Prev() { f.step(-1) }

func (f *Frame) step(d int) {
	if f.count == 0 {
		f.focus = 0
		return
	}
	f.focus = (f.focus + d + f.count) % f.count
}

// Activate presses the focused element on the next frame.
func (f *Frame) Activate() { f.pending = f.focus }

// claim registers an interactive element and reports whether it is focused
// and whether an activation is due for it.
func (f *Frame) claim() (focused, activated bool) {
	i := f.count
	f.count++
	focused = i == f.focus
	if f.pending == i {
		f.pending = -1
		activated = true
	}
	return focused, activated
}

func (f *Frame) Window(name string, rect ui.Rect, collapsed bool) (ui.Rect, bool) {
	focused, activated := f.claim()
	if activated {
		collapsed = !collapsed
	}
	f.width = max(rect.W/CellWidth, minColumns)
	marker := "▾ "
	if collapsed {
		marker = "▸ "
	}
	title := titleStyle.Render(marker + name)
	if focused {
		title = focusStyle.Render("> " + marker + name)
	}
	f.lines = append(f.lines[:0], title)
	return rect, collapsed
}

func (f *Frame) Tabs(panel string, names []string, selected int) int {
	focused, activated := f.claim()
	if activated && len(names) > 0 {
		selected = (selected + 1) % len(names)
	}
	parts := make([]string, 0, len(names))
	for i, n := range names {
		if i == selected {
			parts = append(parts, activeTab.Render(n))
		} else {
			parts = append(parts, tabStyle.Render(n))
		}
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if focused {
		strip = focusStyle.Render("> ") + strip
	}
	f.lines = append(f.lines, strip)
	return selected
}

func (f *Frame) Label(text string, style ui.Style) {
	f.lines = append(f.lines, styleFor(style, false).Render(text))
}

func (f *Frame) Toggle(text string, value bool, style ui.Style) bool {
	focused, activated := f.claim()
	if activated && !style.Disabled {
		value = !value
	}
	box := "[ ] "
	if value {
		box = "[x] "
	}
	f.lines = append(f.lines, styleFor(style, focused).Render(cursor(focused)+box+text))
	return value
}

func (f *Frame) Button(text string, style ui.Style) bool {
	focused, activated := f.claim()
	f.lines = append(f.lines, styleFor(style, focused).Render(cursor(focused)+"< "+text+" >"))
	return activated && !style.Disabled
}

func (f *Frame) End() {
	body := strings.Join(f.lines, "\n")
	f.boxes = append(f.boxes, boxStyle.Width(f.width).Render(body))
	f.lines = f.lines[:0]
}

func cursor(focused bool) string {
	if focused {
		return "> "
	}
	return "  "
}

func styleFor(s ui.Style, focused bool) lipgloss.Style {
	switch {
	case s.Disabled:
		return disabledStyle
	case focused:
		return focusStyle
	default:
		return textStyle
	}
}

var _ ui.Frame = (*Frame)(nil)
