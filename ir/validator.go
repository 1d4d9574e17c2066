package ir

import (
	"fmt"

	"github.com/c360studio/pedal/schema"
)

// ValidatorModule is the structured form of the generated validator source:
// an ordered list of named schemas with their generated expressions, plus the
// per-operation validators. Downstream stages consume this structure instead
// of re-parsing the emitted source text.
type ValidatorModule struct {
	Version    string               `json:"version" yaml:"version"`
	Schemas    []NamedSchema        `json:"schemas" yaml:"schemas"`
	Operations []OperationValidator `json:"operations" yaml:"operations"`
}

// NamedSchema pairs a schema name with its structural type node and the
// validator expression generated for it.
type NamedSchema struct {
	Name       string           `json:"name" yaml:"name"`
	TypeNode   *schema.TypeNode `json:"typeNode" yaml:"typeNode"`
	Expression string           `json:"generatedExpression" yaml:"generatedExpression"`
}

// OperationValidator carries the validator expressions derived for one API
// operation, keyed by its operationId.
type OperationValidator struct {
	OperationID string `json:"operationId" yaml:"operationId"`
	Parameters  string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody string `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Response    string `json:"response,omitempty" yaml:"response,omitempty"`
}

// Validate checks the module invariants: unique non-empty schema names with
// type nodes and expressions, and unique operation ids. An empty schema list
// is valid; a document whose entities carry only identifier attributes
// produces no component schemas.
func (m *ValidatorModule) Validate() error {
	v := &violations{}

	if m.Version == "" {
		v.addf("version", "version is required")
	}

	names := make(map[string]bool, len(m.Schemas))
	for i, s := range m.Schemas {
		base := fmt.Sprintf("schemas[%d]", i)
		if s.Name == "" {
			v.addf(base+".name", "schema name is required")
		} else if names[s.Name] {
			v.addf(base+".name", "duplicate schema name %q", s.Name)
		}
		names[s.Name] = true
		if s.TypeNode == nil {
			v.addf(base+".typeNode", "schema %q has no type node", s.Name)
		}
		if s.Expression == "" {
			v.addf(base+".generatedExpression", "schema %q has no generated expression", s.Name)
		}
	}

	ops := make(map[string]bool, len(m.Operations))
	for i, op := range m.Operations {
		base := fmt.Sprintf("operations[%d]", i)
		if op.OperationID == "" {
			v.addf(base+".operationId", "operationId is required")
		} else if ops[op.OperationID] {
			v.addf(base+".operationId", "duplicate operationId %q", op.OperationID)
		}
		ops[op.OperationID] = true
	}

	return v.err("validator_module")
}
