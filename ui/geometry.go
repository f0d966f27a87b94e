package ui

// Size is a width and height in frame units.
type Size struct {
	W int `yaml:"width" json:"width"`
	H int `yaml:"height" json:"height"`
}

// Rect is a panel's on-screen rectangle.
type Rect struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"width" json:"width"`
	H int `yaml:"height" json:"height"`
}

// Size returns the width and height of r.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Clamp grows r so that it is at least minSize in both dimensions.
func (r Rect) Clamp(minSize Size) Rect {
	if r.W < minSize.W {
		r.W = minSize.W
	}
	if r.H < minSize.H {
		r.H = minSize.H
	}
	return r
}

// Max returns the component-wise maximum of s and o.
func (s Size) Max(o Size) Size {
	if o.W > s.W {
		s.W = o.W
	}
	if o.H > s.H {
		s.H = o.H
	}
	return s
}

// LayoutStore persists panel rectangles keyed by panel name.
type LayoutStore interface {
	Load(name string) (Rect, bool)
	Save(name string, r Rect) error
}

type noLayout struct{}

func (noLayout) Load(string) (Rect, bool) { return Rect{}, false }
func (noLayout) Save(string, Rect) error { return nil }
