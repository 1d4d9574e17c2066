// Package stage implements the pipeline transformers. Each transformer
// consumes the completed artifact of the previous stage, validates it,
// derives the next intermediate representation, validates the result and
// writes it together with a date-suffixed historical copy. Failures are
// fatal to the stage and propagate to the orchestrator; nothing is retried.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/pedal/artifact"
)

// Stage is the common contract of every pipeline transformer.
type Stage interface {
	// Name returns the stage identifier used by the orchestrator.
	Name() string
	// Run reads the input artifact, derives the output artifact and writes
	// it. Run never mutates the input file.
	Run(ctx context.Context, inputPath, outputPath string) error
}

// GenerationError reports an upstream artifact that parses and validates but
// cannot be mapped to the next representation.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError returns true if the error is a mapping failure.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// ExternalToolError reports a non-zero exit from an external validator
// process.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	Output   string
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external tool %s exited with code %d: %s", e.Tool, e.ExitCode, e.Output)
}

// IsExternalToolError returns true if the error came from an external tool.
func IsExternalToolError(err error) bool {
	var toolErr *ExternalToolError
	return errors.As(err, &toolErr)
}

// writeArtifact writes the primary structured artifact and its dated copy.
func writeArtifact(path string, v any, now time.Time) error {
	if err := artifact.WriteStructured(path, v); err != nil {
		return err
	}
	return artifact.WriteDatedCopy(path, now)
}

// writeTextArtifact writes generated source text and its dated copy.
func writeTextArtifact(path, text string, now time.Time) error {
	if err := artifact.WriteText(path, text); err != nil {
		return err
	}
	return artifact.WriteDatedCopy(path, now)
}
