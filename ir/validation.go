// Package ir defines the typed intermediate representations produced between
// pipeline stages: Requirements, DomainModel, ActionModel, ApiDocument,
// ValidatorModule, TableSchema and Manifest. Every IR validates itself on
// ingestion and before being written, reporting all violations at once.
package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Violation describes a single schema violation at a field path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidationError reports every violated field path of an artifact, not just
// the first one, so a single run surfaces all problems.
type ValidationError struct {
	Artifact   string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %d validation violation(s): %s",
		e.Artifact, len(e.Violations), strings.Join(parts, "; "))
}

// IsValidationError returns true if the error carries schema violations.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// violations accumulates field-path violations while an IR is validated.
type violations struct {
	list []Violation
}

func (v *violations) addf(path, format string, args ...any) {
	v.list = append(v.list, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when no violations were recorded.
func (v *violations) err(artifact string) error {
	if len(v.list) == 0 {
		return nil
	}
	return &ValidationError{Artifact: artifact, Violations: v.list}
}
