package stage

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
)

// CoreDomainName is the single synthetic domain every requirements entity is
// folded into.
const CoreDomainName = "CoreDomain"

// DomainModeler derives the domain model from validated requirements.
// Every entity lands in one core domain; fields map 1:1 to attributes with
// the required flag resolved to its default when absent.
type DomainModeler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDomainModeler creates the domain modeling stage.
func NewDomainModeler(logger *slog.Logger) *DomainModeler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DomainModeler{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *DomainModeler) Name() string {
	return "domain_model_generator"
}

// Run reads the requirements artifact and writes the derived domain model.
func (s *DomainModeler) Run(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var req ir.Requirements
	if err := artifact.ReadStructured(inputPath, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	model := Model(&req)
	if err := model.Validate(); err != nil {
		return err
	}

	s.logger.Info("domain model generated",
		slog.String("domain", CoreDomainName),
		slog.Int("entities", len(model.Domains[0].Entities)),
		slog.String("output", outputPath))

	return writeArtifact(outputPath, model, s.now())
}

// Model folds the requirements entities into the core domain.
func Model(req *ir.Requirements) *ir.DomainModel {
	entities := make([]ir.DomainEntity, 0, len(req.Entities))
	for _, e := range req.Entities {
		attrs := make([]ir.Attribute, 0, len(e.Fields))
		for _, f := range e.Fields {
			attrs = append(attrs, ir.Attribute{
				Name:        f.Name,
				Type:        f.Type,
				Required:    f.IsRequired(),
				Unique:      f.Unique,
				Description: f.Description,
				Validation:  map[string]any{},
			})
		}
		entities = append(entities, ir.DomainEntity{
			Name:       e.Name,
			Attributes: attrs,
			Behaviors:  []ir.Behavior{},
		})
	}

	return &ir.DomainModel{
		Version:     req.Version,
		Description: req.Description,
		Domains: []ir.Domain{{
			Name:        CoreDomainName,
			Description: "Core domain grouping all requirement entities",
			Entities:    entities,
		}},
	}
}
