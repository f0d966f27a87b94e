// Package extractor finds the optional facilities that script units need
// before any unit runs, so they can be requested up front.
package extractor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/reglet-dev/reglet-scripthost/source"
)

// Directive starts a header comment that requests facilities:
//
//	--@requires spawn
const Directive = "--@requires"

// ErrUnknownFacility is returned for a directive naming no known facility.
var ErrUnknownFacility = errors.New("unknown facility")

// Extractor reports the facilities one unit needs. A nil result means none.
type Extractor interface {
	Extract(unit string, src []byte) *capability.GrantSet
}

// DirectiveExtractor reads Directive lines from the unit's leading comment
// block. Names may be separated by commas or spaces.
type DirectiveExtractor struct{}

func (DirectiveExtractor) Extract(_ string, src []byte) *capability.GrantSet {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		rest, ok := strings.CutPrefix(line, Directive)
		if !ok {
			continue
		}
		names = append(names, strings.FieldsFunc(rest, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	if len(names) == 0 {
		return nil
	}
	return capability.NewGrantSet(names...)
}

// UsageExtractor infers a facility from field access on its global, such as
// spawn.instantiate(...). It only ever reports known facilities.
type UsageExtractor struct{}

var usagePatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, f := range capability.Facilities() {
		m[f.Name] = regexp.MustCompile(`(?m)(^|[^\w.])` + regexp.QuoteMeta(f.Name) + `\s*[.:]\s*\w`)
	}
	return m
}()

func (UsageExtractor) Extract(_ string, src []byte) *capability.GrantSet {
	var names []string
	for name, re := range usagePatterns {
		if re.Match(src) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return capability.NewGrantSet(names...)
}

// Default returns the built-in extractors.
func Default() []Extractor {
	return []Extractor{DirectiveExtractor{}, UsageExtractor{}}
}

// FromSource runs extractors over every unit in src and merges the results.
// With no extractors, Default is used.
func FromSource(src *source.Source, extractors ...Extractor) (*capability.GrantSet, error) {
	if len(extractors) == 0 {
		extractors = Default()
	}
	units, err := src.Units()
	if err != nil {
		return nil, err
	}

	out := capability.NewGrantSet()
	for _, unit := range units {
		data, err := fs.ReadFile(src.FS(), unit)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", unit, err)
		}
		for _, e := range extractors {
			g := e.Extract(unit, data)
			if g.IsEmpty() {
				continue
			}
			for _, name := range g.Facilities {
				if _, ok := capability.LookupFacility(name); !ok {
					return nil, fmt.Errorf("%s: %w %q", unit, ErrUnknownFacility, name)
				}
			}
			out.Merge(g)
		}
	}
	return out, nil
}

var (
	_ Extractor = DirectiveExtractor{}
	_ Extractor = UsageExtractor{}
)
