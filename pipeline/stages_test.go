package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/config"
	"github.com/c360studio/pedal/ir"
)

func TestDefaultStages_Wiring(t *testing.T) {
	cfg := config.DefaultConfig()
	defs := DefaultStages(cfg, nil)
	require.Len(t, defs, 7)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		require.NotNil(t, d.Runner, "stage %s has no runner", d.Name)
		assert.Equal(t, d.Name, d.Runner.Name())
	}
	assert.Equal(t, []string{
		StageIngest, StageDomain, StageAction, StageOpenAPI,
		StageValidator, StageTable, StagePersist,
	}, names)

	// Ingest and persist are ungated by default; every generator is gated.
	assert.False(t, defs[0].RequiresApproval)
	for _, d := range defs[1:6] {
		assert.True(t, d.RequiresApproval, "stage %s should require approval", d.Name)
	}
	assert.False(t, defs[6].RequiresApproval)

	// Each stage consumes the previous stage's output; the table generator
	// consumes the validator's structured sibling.
	assert.Equal(t, defs[0].OutputPath, defs[1].InputPath)
	assert.Equal(t, defs[1].OutputPath, defs[2].InputPath)
	assert.Equal(t, defs[2].OutputPath, defs[3].InputPath)
	assert.Equal(t, defs[3].OutputPath, defs[4].InputPath)
	assert.Equal(t, filepath.Join("artifacts", "zod_schemas.schemas.json"), defs[5].InputPath)
	assert.Equal(t, cfg.Artifacts.Dir, defs[6].InputPath)
	assert.Equal(t, cfg.Artifacts.DistDir, defs[6].OutputPath)
}

func TestDefaultStages_ApprovalOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pipeline.Approvals = map[string]bool{
		StageDomain:  false,
		StagePersist: true,
	}

	defs := DefaultStages(cfg, nil)
	byName := make(map[string]StageDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	assert.False(t, byName[StageDomain].RequiresApproval)
	assert.True(t, byName[StagePersist].RequiresApproval)
	assert.True(t, byName[StageAction].RequiresApproval, "unmentioned stages keep their default")
}

const pipelineRequirements = `version: "1.0.0"
entities:
  - name: User
    fields:
      - name: id
        type: uuid
      - name: email
        type: email
  - name: Product
    fields:
      - name: sku
        type: string
      - name: price
        type: number
`

func TestPipeline_EndToEnd(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Artifacts.Dir = filepath.Join(root, "artifacts")
	cfg.Artifacts.DistDir = filepath.Join(root, "dist")
	cfg.Artifacts.RequirementsFile = filepath.Join(root, "requirements.yaml")

	require.NoError(t, os.WriteFile(cfg.Artifacts.RequirementsFile, []byte(pipelineRequirements), 0644))

	m := NewManager(nil, DefaultStages(cfg, nil))
	require.NoError(t, m.RunAll(context.Background()))
	assert.Equal(t, StatusCompleted, m.Status())

	// The OpenAPI document references only resolvable schemas.
	var doc ir.ApiDocument
	require.NoError(t, artifact.ReadStructured(filepath.Join(cfg.Artifacts.Dir, OpenAPIArtifact), &doc))
	require.NoError(t, doc.Validate())
	assert.Contains(t, doc.Paths, "/users/{id}")
	assert.Contains(t, doc.Paths, "/products/{sku}")

	// The persisted distribution carries a validated manifest.
	var manifest ir.Manifest
	require.NoError(t, artifact.ReadStructured(filepath.Join(cfg.Artifacts.DistDir, "manifest.json"), &manifest))
	require.NoError(t, manifest.Validate())
	assert.NotEmpty(t, manifest.Files)

	// Generated sources made it into the distribution.
	_, err := os.Stat(filepath.Join(cfg.Artifacts.DistDir, ValidatorArtifact))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Artifacts.DistDir, "db_schema.sql"))
	assert.NoError(t, err)

	// Orchestration state never ships with the artifacts.
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Artifacts.Dir, "pipeline_state.json"), []byte("{}"), 0644))
	require.NoError(t, m.RunAll(context.Background()))
	_, err = os.Stat(filepath.Join(cfg.Artifacts.DistDir, "pipeline_state.json"))
	assert.True(t, os.IsNotExist(err))
}

// An entity whose only attribute is its identifier yields no component
// schemas, so the validator and table stages emit empty modules and the
// pipeline still runs to completion.
func TestPipeline_EndToEnd_IdentifierOnlyEntity(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Artifacts.Dir = filepath.Join(root, "artifacts")
	cfg.Artifacts.DistDir = filepath.Join(root, "dist")
	cfg.Artifacts.RequirementsFile = filepath.Join(root, "requirements.yaml")

	requirements := `version: "1.0.0"
entities:
  - name: Counter
    fields:
      - name: id
        type: uuid
`
	require.NoError(t, os.WriteFile(cfg.Artifacts.RequirementsFile, []byte(requirements), 0644))

	m := NewManager(nil, DefaultStages(cfg, nil))
	require.NoError(t, m.RunAll(context.Background()))
	assert.Equal(t, StatusCompleted, m.Status())

	var doc ir.ApiDocument
	require.NoError(t, artifact.ReadStructured(filepath.Join(cfg.Artifacts.Dir, OpenAPIArtifact), &doc))
	assert.Contains(t, doc.Paths, "/counters/{id}")
	assert.Empty(t, doc.Components.Schemas)

	migration, err := os.ReadFile(filepath.Join(cfg.Artifacts.DistDir, "db_schema.sql"))
	require.NoError(t, err)
	assert.NotContains(t, string(migration), "create table")

	var manifest ir.Manifest
	require.NoError(t, artifact.ReadStructured(filepath.Join(cfg.Artifacts.DistDir, "manifest.json"), &manifest))
	require.NoError(t, manifest.Validate())
}
