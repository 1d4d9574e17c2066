package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Artifacts.Dir != "artifacts" {
		t.Errorf("expected default artifacts dir artifacts, got %s", cfg.Artifacts.Dir)
	}
	if cfg.Artifacts.DistDir != "dist" {
		t.Errorf("expected default dist dir dist, got %s", cfg.Artifacts.DistDir)
	}
	if cfg.Artifacts.RequirementsFile != "requirements.yaml" {
		t.Errorf("expected default requirements file requirements.yaml, got %s", cfg.Artifacts.RequirementsFile)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}

	ignored := false
	for _, pattern := range cfg.Artifacts.Ignore {
		if pattern == "**/pipeline_state.json" {
			ignored = true
		}
	}
	if !ignored {
		t.Errorf("expected default ignore patterns to exclude the state file, got %v", cfg.Artifacts.Ignore)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing artifacts dir",
			modify:  func(c *Config) { c.Artifacts.Dir = "" },
			wantErr: true,
		},
		{
			name:    "missing dist dir",
			modify:  func(c *Config) { c.Artifacts.DistDir = "" },
			wantErr: true,
		},
		{
			name:    "missing requirements file",
			modify:  func(c *Config) { c.Artifacts.RequirementsFile = "" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.Artifacts.Dir = "/tmp/pedal"
	other.Pipeline.Approvals = map[string]bool{"domain_model_generator": false}
	other.OpenAPI.ValidatorCommand = []string{"spectral", "lint"}
	other.Log.Level = "debug"

	base.Merge(other)

	if base.Artifacts.Dir != "/tmp/pedal" {
		t.Errorf("expected merged artifacts dir /tmp/pedal, got %s", base.Artifacts.Dir)
	}
	if base.Artifacts.DistDir != "dist" {
		t.Errorf("zero values must not override defaults, got %s", base.Artifacts.DistDir)
	}
	if gated, ok := base.Pipeline.Approvals["domain_model_generator"]; !ok || gated {
		t.Errorf("expected approval override false, got %v (present: %v)", gated, ok)
	}
	if len(base.OpenAPI.ValidatorCommand) != 2 {
		t.Errorf("expected merged validator command, got %v", base.OpenAPI.ValidatorCommand)
	}
	if base.Log.Level != "debug" {
		t.Errorf("expected merged log level debug, got %s", base.Log.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedal.yaml")
	content := `artifacts:
  dir: build/artifacts
pipeline:
  approvals:
    openapi_generator: false
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Artifacts.Dir != "build/artifacts" {
		t.Errorf("expected artifacts dir build/artifacts, got %s", cfg.Artifacts.Dir)
	}
	if cfg.Artifacts.DistDir != "dist" {
		t.Errorf("expected default dist dir to survive partial file, got %s", cfg.Artifacts.DistDir)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Log.Level)
	}
	if gated := cfg.Pipeline.Approvals["openapi_generator"]; gated {
		t.Error("expected openapi_generator approval override to be false")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFromFile() should fail for a missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "pedal.yaml")

	cfg := DefaultConfig()
	cfg.Artifacts.Dir = "/srv/pedal/artifacts"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	reloaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if reloaded.Artifacts.Dir != cfg.Artifacts.Dir {
		t.Errorf("expected reloaded artifacts dir %s, got %s", cfg.Artifacts.Dir, reloaded.Artifacts.Dir)
	}
}

func TestArtifactPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Artifacts.Dir = "build"

	if got := cfg.ArtifactPath("oas.yaml"); got != filepath.Join("build", "oas.yaml") {
		t.Errorf("ArtifactPath() = %s", got)
	}
	if got := cfg.ArtifactPath("/abs/oas.yaml"); got != "/abs/oas.yaml" {
		t.Errorf("absolute path should pass through, got %s", got)
	}
}
