package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the conventional configuration name at the build root.
const DefaultConfigFile = ".pipewright.yml"

// Config is the top-level pipewright configuration.
type Config struct {
	Manifests string        `yaml:"manifests"` // Manifest directory relative to the build root (default ".pipewright/manifests")
	Agent     AgentConfig   `yaml:"agent"`
	Secrets   SecretsConfig `yaml:"secrets"`
}

// AgentConfig selects the Buildkite agent binary uploads go through.
type AgentConfig struct {
	Binary string `yaml:"binary"` // Agent executable (default "buildkite-agent")
}

// SecretsConfig controls the pre-upload leak scan.
type SecretsConfig struct {
	Enabled  bool `yaml:"enabled"`   // Scan the document and artifacts before upload (default true)
	WarnOnly bool `yaml:"warn_only"` // Report findings without failing the upload (default false)
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Manifests: ".pipewright/manifests",
		Agent:     AgentConfig{Binary: "buildkite-agent"},
		Secrets:   SecretsConfig{Enabled: true},
	}
}
