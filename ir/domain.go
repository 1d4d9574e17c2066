package ir

import "fmt"

// DomainModel groups entities into domains. The current modeler folds every
// requirements entity into a single core domain.
type DomainModel struct {
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Domains     []Domain `json:"domains" yaml:"domains"`
}

// Domain is a named grouping of domain entities.
type Domain struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Entities    []DomainEntity `json:"entities" yaml:"entities"`
}

// DomainEntity is an entity enriched with attributes and behaviors.
type DomainEntity struct {
	Name       string      `json:"name" yaml:"name"`
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
	Behaviors  []Behavior  `json:"behaviors" yaml:"behaviors"`
}

// Attribute mirrors a requirements field with the required default resolved
// and an initially empty validation bag for later enrichment.
type Attribute struct {
	Name        string         `json:"name" yaml:"name"`
	Type        string         `json:"type" yaml:"type"`
	Required    bool           `json:"required" yaml:"required"`
	Unique      bool           `json:"unique,omitempty" yaml:"unique,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Validation  map[string]any `json:"validation" yaml:"validation"`
}

// Behavior is a named capability of a domain entity.
type Behavior struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the domain-model invariants: at least one domain, at least
// one entity per domain, at least one attribute per entity.
func (m *DomainModel) Validate() error {
	v := &violations{}

	if m.Version == "" {
		v.addf("version", "version is required")
	}
	if len(m.Domains) == 0 {
		v.addf("domains", "at least one domain is required")
	}

	for i, d := range m.Domains {
		base := fmt.Sprintf("domains[%d]", i)
		if d.Name == "" {
			v.addf(base+".name", "domain name is required")
		}
		if len(d.Entities) == 0 {
			v.addf(base+".entities", "domain %q must contain at least one entity", d.Name)
		}
		for j, e := range d.Entities {
			entityBase := fmt.Sprintf("%s.entities[%d]", base, j)
			if e.Name == "" {
				v.addf(entityBase+".name", "entity name is required")
			}
			if len(e.Attributes) == 0 {
				v.addf(entityBase+".attributes", "entity %q must declare at least one attribute", e.Name)
			}
			for k, a := range e.Attributes {
				if a.Name == "" {
					v.addf(fmt.Sprintf("%s.attributes[%d].name", entityBase, k), "attribute name is required")
				}
			}
		}
	}

	return v.err("domain_model")
}
