// Package version carries the build identity stamped into the binary and
// the form of it that manifest version constraints are checked against.
package version

import (
	"fmt"
	"strings"
)

// Injected at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Semver returns the running version without any leading "v", the form the
// manifest `requires` gate parses. Development builds return "dev", which is
// not a version at all; the gate treats that as unconstrained.
func Semver() string {
	return strings.TrimPrefix(Version, "v")
}

// String returns the version line the CLI prints.
func String() string {
	return fmt.Sprintf("pipewright %s (%s, %s)", Version, Commit, BuildDate)
}
