package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate checks structural invariants of a loaded Config.
func Validate(cfg *Config) error {
	var errs []string

	// ── Manifests ─────────────────────────────────────────────────────────

	if cfg.Manifests == "" {
		errs = append(errs, "manifests: directory is required")
	} else {
		errs = append(errs, validateRelativePath(cfg.Manifests, "manifests")...)
	}

	// ── Agent ─────────────────────────────────────────────────────────────

	if cfg.Agent.Binary == "" {
		errs = append(errs, "agent.binary: must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateRelativePath checks that a configured path stays inside the build
// root.
func validateRelativePath(p, key string) []string {
	var errs []string

	if filepath.IsAbs(p) {
		errs = append(errs, fmt.Sprintf("%s: path %q must be relative, not absolute", key, p))
		return errs
	}
	if strings.HasPrefix(p, "~") {
		errs = append(errs, fmt.Sprintf("%s: path %q must not start with ~", key, p))
		return errs
	}
	if strings.Contains(p, "..") {
		errs = append(errs, fmt.Sprintf("%s: path %q must not contain '..'", key, p))
		return errs
	}
	return errs
}
