// Package config provides configuration loading and management for Pedal.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Pedal configuration.
type Config struct {
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
	Log       LogConfig       `yaml:"log"`
}

// ArtifactsConfig configures where pipeline artifacts live.
type ArtifactsConfig struct {
	// Dir is the working directory holding intermediate artifacts.
	Dir string `yaml:"dir"`
	// DistDir is the distribution root written by the persist stage.
	DistDir string `yaml:"dist_dir"`
	// RequirementsFile is the pipeline input, relative to Dir unless
	// absolute.
	RequirementsFile string `yaml:"requirements_file"`
	// Ignore lists glob patterns excluded from the distribution.
	Ignore []string `yaml:"ignore"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	// Approvals maps stage names to their requires_approval flag. Stages
	// absent from the map keep their default.
	Approvals map[string]bool `yaml:"approvals"`
	// StateFile is where per-stage state is persisted between CLI
	// invocations, relative to the artifacts dir unless absolute.
	StateFile string `yaml:"state_file"`
}

// OpenAPIConfig configures the OpenAPI stage.
type OpenAPIConfig struct {
	// ValidatorCommand, when non-empty, is an external validator invoked on
	// the emitted document (the document path is appended as the final
	// argument). A non-zero exit fails the stage.
	ValidatorCommand []string `yaml:"validator_command"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Dir:              "artifacts",
			DistDir:          "dist",
			RequirementsFile: "requirements.yaml",
			// Dated artifact copies and the orchestration state file stay out
			// of the distribution.
			Ignore: []string{
				"**/*_[0-9][0-9][0-9][0-9][0-9][0-9][0-9][0-9].*",
				"**/pipeline_state.json",
			},
		},
		Pipeline: PipelineConfig{
			Approvals: nil, // Stage defaults apply
			StateFile: "pipeline_state.json",
		},
		OpenAPI: OpenAPIConfig{
			ValidatorCommand: nil, // Structural validation only
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if c.Artifacts.DistDir == "" {
		return fmt.Errorf("artifacts.dist_dir is required")
	}
	if c.Artifacts.RequirementsFile == "" {
		return fmt.Errorf("artifacts.requirements_file is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Artifacts.Dir != "" {
		c.Artifacts.Dir = other.Artifacts.Dir
	}
	if other.Artifacts.DistDir != "" {
		c.Artifacts.DistDir = other.Artifacts.DistDir
	}
	if other.Artifacts.RequirementsFile != "" {
		c.Artifacts.RequirementsFile = other.Artifacts.RequirementsFile
	}
	if other.Artifacts.Ignore != nil {
		c.Artifacts.Ignore = other.Artifacts.Ignore
	}

	if other.Pipeline.Approvals != nil {
		if c.Pipeline.Approvals == nil {
			c.Pipeline.Approvals = make(map[string]bool)
		}
		for name, gated := range other.Pipeline.Approvals {
			c.Pipeline.Approvals[name] = gated
		}
	}
	if other.Pipeline.StateFile != "" {
		c.Pipeline.StateFile = other.Pipeline.StateFile
	}

	if other.OpenAPI.ValidatorCommand != nil {
		c.OpenAPI.ValidatorCommand = other.OpenAPI.ValidatorCommand
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// ArtifactPath resolves a path against the artifacts directory. Absolute
// paths pass through unchanged.
func (c *Config) ArtifactPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Artifacts.Dir, name)
}
