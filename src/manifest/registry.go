package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConflictError reports two different manifests claiming the same name in
// one registry.
type ConflictError struct {
	Name     string
	Existing string // path already registered under the name
	Incoming string // path of the rejected manifest
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("manifest name %q already registered from %s, conflicting with %s", e.Name, e.Existing, e.Incoming)
}

// Registry holds the manifests for one build. Every build constructs its own
// registry and threads it through explicitly; nothing is process-global. A
// registry is driven from the single build goroutine and carries no lock.
type Registry struct {
	byName  map[string]*Manifest
	ordered []*Manifest
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Manifest)}
}

// Register adds a loaded manifest. Registering identical file contents under
// an already-taken name is a no-op returning the held manifest; different
// contents under a taken name is a ConflictError.
func (r *Registry) Register(m *Manifest) (*Manifest, error) {
	if existing, ok := r.byName[m.Name]; ok {
		if existing.Digest == m.Digest {
			return existing, nil
		}
		return nil, &ConflictError{Name: m.Name, Existing: existing.Path, Incoming: m.Path}
	}
	r.byName[m.Name] = m
	r.ordered = append(r.ordered, m)
	return m, nil
}

// Load reads the manifest at path and registers it.
func (r *Registry) Load(path string) (*Manifest, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	return r.Register(m)
}

// LoadDir loads every manifest file directly under dir, in lexical order so
// declaration order is stable across machines. A missing directory is
// treated as having no manifests.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading manifest dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yml", ".yaml", ".toml":
		default:
			continue
		}
		if _, err := r.Load(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the manifest registered under name.
func (r *Registry) Get(name string) (*Manifest, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// All returns the registered manifests keyed by name. The map is a copy.
func (r *Registry) All() map[string]*Manifest {
	out := make(map[string]*Manifest, len(r.byName))
	for k, v := range r.byName {
		out[k] = v
	}
	return out
}

// List returns the manifests in load order, the order their declarations
// apply during a build.
func (r *Registry) List() []*Manifest {
	out := make([]*Manifest, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered manifests.
func (r *Registry) Len() int {
	return len(r.ordered)
}
