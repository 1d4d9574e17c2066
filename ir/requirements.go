package ir

import "fmt"

// Requirements is the declarative input of the pipeline: a flat list of
// entities with typed fields.
type Requirements struct {
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Entities    []Entity `json:"entities" yaml:"entities"`
}

// Entity is a named business object described by the requirements.
type Entity struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Field is a single typed member of an entity. Required defaults to true
// when absent from the source document, so it is modelled as a pointer.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    *bool  `json:"required,omitempty" yaml:"required,omitempty"`
	Unique      bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsRequired reports whether the field is required, defaulting to true when
// the source document did not say.
func (f Field) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// Validate checks the requirements invariants: at least one entity, at least
// one field per entity, and field names unique within an entity.
func (r *Requirements) Validate() error {
	v := &violations{}

	if r.Version == "" {
		v.addf("version", "version is required")
	}
	if len(r.Entities) == 0 {
		v.addf("entities", "at least one entity is required")
	}

	for i, e := range r.Entities {
		base := fmt.Sprintf("entities[%d]", i)
		if e.Name == "" {
			v.addf(base+".name", "entity name is required")
		}
		if len(e.Fields) == 0 {
			v.addf(base+".fields", "entity %q must declare at least one field", e.Name)
		}
		seen := make(map[string]bool, len(e.Fields))
		for j, f := range e.Fields {
			fieldBase := fmt.Sprintf("%s.fields[%d]", base, j)
			if f.Name == "" {
				v.addf(fieldBase+".name", "field name is required")
				continue
			}
			if seen[f.Name] {
				v.addf(fieldBase+".name", "duplicate field name %q", f.Name)
			}
			seen[f.Name] = true
		}
	}

	return v.err("requirements")
}
