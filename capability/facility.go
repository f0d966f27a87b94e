package capability

import (
	"slices"
	"sort"
)

// Facility is an optional bridge global that is only installed when granted.
type Facility struct {
	Name        string
	Description string
	Risk        RiskLevel
	// Broad facilities reach beyond a single script's own objects.
	Broad bool
}

// Spawn lets scripts instantiate and destroy world objects from the prefab
// catalog.
var Spawn = Facility{
	Name:        "spawn",
	Description: "spawn: create and destroy world objects from prefabs",
	Risk:        RiskHigh,
	Broad:       true,
}

// Facilities lists every known optional facility.
func Facilities() []Facility {
	return []Facility{Spawn}
}

// LookupFacility finds a known facility by name.
func LookupFacility(name string) (Facility, bool) {
	for _, f := range Facilities() {
		if f.Name == name {
			return f, true
		}
	}
	return Facility{}, false
}

// GrantSet is the set of facilities a host session may install.
type GrantSet struct {
	Facilities []string `yaml:"facilities" json:"facilities"`
}

// NewGrantSet returns a deduplicated set of the given facility names.
func NewGrantSet(names ...string) *GrantSet {
	g := &GrantSet{Facilities: append([]string(nil), names...)}
	g.Deduplicate()
	return g
}

// IsEmpty reports whether no facility is granted.
func (g *GrantSet) IsEmpty() bool {
	return g == nil || len(g.Facilities) == 0
}

// Has reports whether name is granted.
func (g *GrantSet) Has(name string) bool {
	return g != nil && slices.Contains(g.Facilities, name)
}

// Clone returns a deep copy.
func (g *GrantSet) Clone() *GrantSet {
	if g == nil {
		return &GrantSet{}
	}
	return &GrantSet{Facilities: slices.Clone(g.Facilities)}
}

// Difference returns the facilities in g that are not in other.
func (g *GrantSet) Difference(other *GrantSet) *GrantSet {
	out := &GrantSet{}
	if g == nil {
		return out
	}
	for _, f := range g.Facilities {
		if !other.Has(f) {
			out.Facilities = append(out.Facilities, f)
		}
	}
	return out
}

// Merge adds every facility of other to g.
func (g *GrantSet) Merge(other *GrantSet) {
	if other == nil {
		return
	}
	g.Facilities = append(g.Facilities, other.Facilities...)
	g.Deduplicate()
}

// Deduplicate sorts the facilities and removes repeats and empty names.
func (g *GrantSet) Deduplicate() {
	if g == nil {
		return
	}
	sort.Strings(g.Facilities)
	g.Facilities = slices.Compact(g.Facilities)
	g.Facilities = slices.DeleteFunc(g.Facilities, func(s string) bool { return s == "" })
}
