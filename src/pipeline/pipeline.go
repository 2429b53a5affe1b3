// Package pipeline models a Buildkite pipeline as an ordered sequence of
// typed steps and renders it to the canonical YAML document the agent
// consumes.
//
// A pipeline is declared through a Builder: manifests, extensions, and the
// calling program append steps in call order. The finished declaration is
// validated as a whole, and ToYAML produces a byte-identical document for
// identical declarations.
package pipeline

// Definition is the root of a pipeline document: the ordered step sequence
// plus pipeline-level environment variables.
type Definition struct {
	Steps []Step            // declaration order, preserved exactly on the wire
	Env   map[string]string // emitted only when at least one variable was declared
}
