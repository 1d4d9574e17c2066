package stage

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
)

// Ingest normalizes the requirements document: it accepts YAML or JSON,
// validates the invariants and writes the canonical JSON form consumed by
// the domain modeler.
type Ingest struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewIngest creates the requirements ingest stage.
func NewIngest(logger *slog.Logger) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *Ingest) Name() string {
	return "requirements_ingest"
}

// Run reads the requirements file and writes its validated JSON form.
func (s *Ingest) Run(ctx context.Context, inputPath, outputPath string) error {
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

	s.logger.Info("requirements ingested",
		slog.Int("entities", len(req.Entities)),
		slog.String("output", outputPath))

	return writeArtifact(outputPath, &req, s.now())
}
