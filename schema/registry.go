// Package schema keeps JSON schemas for the structured arguments scripts pass
// to bridge functions and validates documents against them.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnknownKind is returned when no schema is registered for a kind.
var ErrUnknownKind = errors.New("schema kind not registered")

// ValidationResult lists the violations found in a document.
type ValidationResult struct {
	Errors []string
	Valid  bool
}

type entry struct {
	raw      string
	compiled *validator.Schema
}

// Registry maps a kind name to a compiled schema.
type Registry struct {
	schemas   map[string]*entry
	mu        sync.RWMutex
	reflector *jsonschema.Reflector
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	r := &Registry{
		schemas:   make(map[string]*entry),
		reflector: new(jsonschema.Reflector),
	}
	r.reflector.ExpandedStruct = true
	return r
}

// Register adds a schema for kind. model can be a Go struct (to generate the
// schema) or a raw JSON schema as a string, []byte or map.
func (r *Registry) Register(kind string, model any) error {
	raw, err := r.render(model)
	if err != nil {
		return fmt.Errorf("schema %q: %w", kind, err)
	}

	c := validator.NewCompiler()
	url := kind + ".json"
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("schema %q: adding resource: %w", kind, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("schema %q: compiling: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[kind]; exists {
		return fmt.Errorf("schema kind already registered: %s", kind)
	}
	r.schemas[kind] = &entry{raw: string(raw), compiled: compiled}
	return nil
}

func (r *Registry) render(model any) ([]byte, error) {
	switch v := model.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema map: %w", err)
		}
		return b, nil
	}

	t := reflect.TypeOf(model)
	if t == nil || (t.Kind() != reflect.Struct && (t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct)) {
		return nil, fmt.Errorf("unsupported schema model %T", model)
	}
	b, err := json.MarshalIndent(r.reflector.Reflect(model), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}
	return b, nil
}

// Schema returns the JSON text of the schema registered for kind.
func (r *Registry) Schema(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.schemas[kind]
	if !ok {
		return "", false
	}
	return e.raw, true
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks doc against the schema for kind. doc may be any value that
// encodes to JSON. The error is reserved for unknown kinds and unencodable
// documents; schema violations are reported in the result.
func (r *Registry) Validate(kind string, doc any) (*ValidationResult, error) {
	r.mu.RLock()
	e, ok := r.schemas[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}

	err = e.compiled.Validate(normalized)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var ve *validator.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating %s: %w", kind, err)
	}
	res := &ValidationResult{}
	for _, be := range ve.BasicOutput().Errors {
		if be.Error == "" {
			continue
		}
		loc := be.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		res.Errors = append(res.Errors, loc+": "+be.Error)
	}
	if len(res.Errors) == 0 {
		res.Errors = []string{ve.Error()}
	}
	return res, nil
}

// normalize round-trips doc through encoding/json so the validator only sees
// the value types json.Unmarshal produces.
func normalize(doc any) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return out, nil
}
