// Package extension defines the contract for code that contributes pipeline
// declarations during a build, alongside the manifests on disk.
package extension

import (
	"fmt"

	"github.com/pipewright/pipewright/src/pipeline"
)

// Extension contributes declarations to an in-progress build. Apply runs
// exactly once per build with the build root and the shared step builder,
// after every registered manifest and before the caller's own callback.
type Extension interface {
	Name() string
	Apply(root string, b *pipeline.Builder) error
}

// New adapts a named function to the Extension interface.
func New(name string, fn func(root string, b *pipeline.Builder) error) Extension {
	return &funcExtension{name: name, fn: fn}
}

type funcExtension struct {
	name string
	fn   func(root string, b *pipeline.Builder) error
}

func (e *funcExtension) Name() string { return e.name }

func (e *funcExtension) Apply(root string, b *pipeline.Builder) error {
	if e.fn == nil {
		return nil
	}
	return e.fn(root, b)
}

// Set is an ordered collection of extensions scoped to one build. Like the
// manifest registry it is an explicit instance, not process state, so
// concurrent builds in one process cannot see each other's extensions.
type Set struct {
	byName  map[string]Extension
	ordered []string
}

// NewSet creates an empty extension set.
func NewSet() *Set {
	return &Set{byName: make(map[string]Extension)}
}

// Register adds an extension. Registration order is apply order; a second
// extension under an already registered name is rejected.
func (s *Set) Register(ext Extension) error {
	if ext == nil {
		return fmt.Errorf("nil extension")
	}
	name := ext.Name()
	if name == "" {
		return fmt.Errorf("extension has no name")
	}
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("extension %q already registered", name)
	}
	s.byName[name] = ext
	s.ordered = append(s.ordered, name)
	return nil
}

// All returns the registered extensions in registration order.
func (s *Set) All() []Extension {
	out := make([]Extension, 0, len(s.ordered))
	for _, name := range s.ordered {
		out = append(out, s.byName[name])
	}
	return out
}

// Len reports how many extensions are registered.
func (s *Set) Len() int {
	return len(s.ordered)
}
