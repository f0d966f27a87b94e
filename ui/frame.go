package ui

// Style carries per-element drawing hints.
type Style struct {
	Disabled bool
}

// Frame is the immediate-mode drawing surface a rendering backend provides.
// Every Window call is paired with exactly one End call. Interactive calls
// report the user's input for this frame.
type Frame interface {
	// Window draws panel chrome and returns the rectangle and collapsed
	// state after any drag, resize or collapse by the user.
	Window(name string, rect Rect, collapsed bool) (Rect, bool)
	// Tabs draws a tab strip and returns the selected index.
	Tabs(panel string, names []string, selected int) int
	Label(text string, style Style)
	// Toggle returns the new value.
	Toggle(text string, value bool, style Style) bool
	// Button reports whether it was pressed this frame.
	Button(text string, style Style) bool
	End()
}
