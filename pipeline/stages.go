package pipeline

import (
	"log/slog"
	"path/filepath"

	"github.com/c360studio/pedal/config"
	"github.com/c360studio/pedal/manifest"
	"github.com/c360studio/pedal/stage"
)

// Stage names in declared pipeline order.
const (
	StageIngest    = "requirements_ingest"
	StageDomain    = "domain_model_generator"
	StageAction    = "action_model_generator"
	StageOpenAPI   = "openapi_generator"
	StageValidator = "zod_schema_generator"
	StageTable     = "database_schema_generator"
	StagePersist   = "artifact_persist"
)

// Artifact filenames within the artifacts directory.
const (
	RequirementsArtifact = "requirements.json"
	DomainModelArtifact  = "domain_model.json"
	ActionModelArtifact  = "action_model.json"
	OpenAPIArtifact      = "oas.yaml"
	ValidatorArtifact    = "zod_schemas.ts"
	TableSchemaArtifact  = "db_schema.ts"
)

// defaultApprovals holds the requires_approval default per stage: every
// generator downstream of ingest is gated, the final persist is not.
var defaultApprovals = map[string]bool{
	StageIngest:    false,
	StageDomain:    true,
	StageAction:    true,
	StageOpenAPI:   true,
	StageValidator: true,
	StageTable:     true,
	StagePersist:   false,
}

// DefaultStages declares the seven pipeline stages wired to the configured
// artifact paths. Config approval overrides take precedence over the stage
// defaults.
func DefaultStages(cfg *config.Config, logger *slog.Logger) []StageDef {
	requirements := cfg.Artifacts.RequirementsFile
	if !filepath.IsAbs(requirements) {
		requirements = cfg.ArtifactPath(requirements)
	}

	synth := stage.NewApiSynthesizer(logger)
	synth.ValidatorCommand = cfg.OpenAPI.ValidatorCommand

	builder := manifest.NewBuilder(logger)
	builder.Ignore = cfg.Artifacts.Ignore

	defs := []StageDef{
		{
			Name:       StageIngest,
			InputPath:  requirements,
			OutputPath: cfg.ArtifactPath(RequirementsArtifact),
			Runner:     stage.NewIngest(logger),
		},
		{
			Name:       StageDomain,
			InputPath:  cfg.ArtifactPath(RequirementsArtifact),
			OutputPath: cfg.ArtifactPath(DomainModelArtifact),
			Runner:     stage.NewDomainModeler(logger),
		},
		{
			Name:       StageAction,
			InputPath:  cfg.ArtifactPath(DomainModelArtifact),
			OutputPath: cfg.ArtifactPath(ActionModelArtifact),
			Runner:     stage.NewActionDeriver(logger),
		},
		{
			Name:       StageOpenAPI,
			InputPath:  cfg.ArtifactPath(ActionModelArtifact),
			OutputPath: cfg.ArtifactPath(OpenAPIArtifact),
			Runner:     synth,
		},
		{
			Name:       StageValidator,
			InputPath:  cfg.ArtifactPath(OpenAPIArtifact),
			OutputPath: cfg.ArtifactPath(ValidatorArtifact),
			Runner:     stage.NewValidatorGenerator(logger),
		},
		{
			// The table generator consumes the structured module the
			// validator stage wrote next to its source output.
			Name:       StageTable,
			InputPath:  stage.StructuredPath(cfg.ArtifactPath(ValidatorArtifact)),
			OutputPath: cfg.ArtifactPath(TableSchemaArtifact),
			Runner:     stage.NewTableSchemaGenerator(logger),
		},
		{
			Name:       StagePersist,
			InputPath:  cfg.Artifacts.Dir,
			OutputPath: cfg.Artifacts.DistDir,
			Runner:     builder,
		},
	}

	for i := range defs {
		gated := defaultApprovals[defs[i].Name]
		if override, ok := cfg.Pipeline.Approvals[defs[i].Name]; ok {
			gated = override
		}
		defs[i].RequiresApproval = gated
	}

	return defs
}
