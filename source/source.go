// Package source finds script units on disk, watches them for changes and
// rebuilds the script generation when they change.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/reglet-scripthost/script"
)

// UnitPattern matches the units loaded from the root. It does not recurse.
const UnitPattern = "*" + script.ScriptExtension

// Source is a script root.
type Source struct {
	dir  string
	fsys fs.FS
}

// New returns a Source over the directory dir.
func New(dir string) *Source {
	return &Source{dir: dir, fsys: os.DirFS(dir)}
}

// NewFS returns a Source over fsys. Dir is empty, so it cannot be watched.
func NewFS(fsys fs.FS) *Source {
	return &Source{fsys: fsys}
}

// Dir returns the directory on disk, or "" for a Source built by NewFS.
func (s *Source) Dir() string { return s.dir }

// FS returns the root as an fs.FS.
func (s *Source) FS() fs.FS { return s.fsys }

// EnsureDir creates the root directory if it is missing.
func (s *Source) EnsureDir() error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating script root %s: %w", s.dir, err)
	}
	return nil
}

// Units lists the script files directly under the root in byte order.
func (s *Source) Units() ([]string, error) {
	matches, err := doublestar.Glob(s.fsys, UnitPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("listing script units: %w", err)
	}
	slices.Sort(matches)
	return matches, nil
}
