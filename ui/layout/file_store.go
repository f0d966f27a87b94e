// Package layout persists panel rectangles between sessions.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/reglet-scripthost/ui"
)

// document is the on-disk shape of the layout file.
type document struct {
	Version int                `yaml:"version"`
	Panels  map[string]ui.Rect `yaml:"panels"`
}

const documentVersion = 1

// FileStore keeps panel rectangles in a YAML file. The file is read lazily on
// first use and rewritten on every Save.
type FileStore struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
	panels   map[string]ui.Rect
	loaded   bool
	loadErr  error
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFilePermissions sets the mode of the layout file.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(s *FileStore) { s.filePerm = perm }
}

// WithDirPermissions sets the mode of directories created for the file.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(s *FileStore) { s.dirPerm = perm }
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		path:     path,
		dirPerm:  0o755,
		filePerm: 0o644,
		panels:   make(map[string]ui.Rect),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Err returns the error from reading the file, if any. A missing file is not an error.
func (s *FileStore) Err() error {
	s.ensureLoaded()
	return s.loadErr
}

func (s *FileStore) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		s.loadErr = fmt.Errorf("reading layout file: %w", err)
		return
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.loadErr = fmt.Errorf("decoding layout YAML: %w", err)
		return
	}
	for name, r := range doc.Panels {
		s.panels[name] = r
	}
}

// Load returns the remembered rectangle for a panel.
func (s *FileStore) Load(name string) (ui.Rect, bool) {
	s.ensureLoaded()
	r, ok := s.panels[name]
	return r, ok
}

// Save remembers r for name and rewrites the file.
func (s *FileStore) Save(name string, r ui.Rect) error {
	s.ensureLoaded()
	s.panels[name] = r

	if err := os.MkdirAll(filepath.Dir(s.path), s.dirPerm); err != nil {
		return fmt.Errorf("creating directory for layout file: %w", err)
	}
	data, err := yaml.Marshal(document{Version: documentVersion, Panels: s.panels})
	if err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	if err := os.WriteFile(s.path, data, s.filePerm); err != nil {
		return fmt.Errorf("writing layout file: %w", err)
	}
	return nil
}

// Names lists the remembered panels in sorted order.
func (s *FileStore) Names() []string {
	s.ensureLoaded()
	names := make([]string, 0, len(s.panels))
	for n := range s.panels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var _ ui.LayoutStore = (*FileStore)(nil)
