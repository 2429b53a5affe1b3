package output

import (
	"fmt"
	"io"
	"os"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsBuildkite() bool {
	return os.Getenv("BUILDKITE") == "true"
}

// Buildkite log group helpers. A leading "--- " opens a collapsed group in
// the job log, "+++ " opens an expanded one, and "^^^ +++" expands the group
// that is currently open. Outside Buildkite these are no-ops; the Section
// frame carries the local rendering.

func Group(w io.Writer, name string) {
	if !IsBuildkite() {
		return
	}
	fmt.Fprintf(w, "--- %s\n", name)
}

func GroupExpand(w io.Writer, name string) {
	if !IsBuildkite() {
		return
	}
	fmt.Fprintf(w, "+++ %s\n", name)
}

// ExpandCurrentGroup retroactively expands the open log group, so failures
// inside a collapsed group surface without a click.
func ExpandCurrentGroup(w io.Writer) {
	if !IsBuildkite() {
		return
	}
	fmt.Fprintln(w, "^^^ +++")
}

// BuildContext assembles the job identity shown at the start of a run from
// the Buildkite job environment. Empty outside Buildkite.
func BuildContext() []KV {
	if !IsBuildkite() {
		return nil
	}
	var kv []KV
	if slug := os.Getenv("BUILDKITE_PIPELINE_SLUG"); slug != "" {
		kv = append(kv, KV{Key: "Pipeline", Value: slug})
	}
	if branch := os.Getenv("BUILDKITE_BRANCH"); branch != "" {
		kv = append(kv, KV{Key: "Branch", Value: branch})
	}
	if sha := os.Getenv("BUILDKITE_COMMIT"); sha != "" && len(sha) >= 7 {
		kv = append(kv, KV{Key: "Commit", Value: sha[:7]})
	}
	if num := os.Getenv("BUILDKITE_BUILD_NUMBER"); num != "" {
		kv = append(kv, KV{Key: "Build", Value: "#" + num})
	}
	if step := os.Getenv("BUILDKITE_STEP_KEY"); step != "" {
		kv = append(kv, KV{Key: "Step", Value: step})
	}
	return kv
}
