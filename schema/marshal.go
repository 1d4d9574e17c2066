package schema

import (
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RefPrefix is the OpenAPI component pointer prefix used when serializing
// reference nodes.
const RefPrefix = "#/components/schemas/"

// typeNodeDoc is the wire shape of a TypeNode. It matches the OpenAPI 3.0
// schema-object subset the pipeline emits, so a TypeNode embedded in an API
// document serializes directly as an OpenAPI schema.
type typeNodeDoc struct {
	Ref         string               `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        string               `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string               `json:"format,omitempty" yaml:"format,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Pattern     string               `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinItems    *int                 `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems    *int                 `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Items       *TypeNode            `json:"items,omitempty" yaml:"items,omitempty"`
	Properties  map[string]*TypeNode `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string             `json:"required,omitempty" yaml:"required,omitempty"`
}

// doc converts the node to its wire shape.
func (n *TypeNode) doc() *typeNodeDoc {
	if n.Kind == KindReference {
		return &typeNodeDoc{Ref: RefPrefix + n.Ref}
	}

	d := &typeNodeDoc{
		Type:        string(n.Kind),
		Format:      n.Format,
		Description: n.Description,
		Pattern:     n.Pattern,
		MinLength:   n.MinLength,
		MaxLength:   n.MaxLength,
		Minimum:     n.Minimum,
		Maximum:     n.Maximum,
		MinItems:    n.MinItems,
		MaxItems:    n.MaxItems,
		Items:       n.Items,
		Required:    n.Required,
	}
	if len(n.Properties) > 0 {
		d.Properties = make(map[string]*TypeNode, len(n.Properties))
		for _, p := range n.Properties {
			d.Properties[p.Name] = p.Node
		}
	}
	return d
}

// fromDoc rebuilds the node from its wire shape. Property order is not
// recoverable from a JSON/YAML mapping, so properties are sorted by name.
func (n *TypeNode) fromDoc(d *typeNodeDoc) {
	if d.Ref != "" {
		name := d.Ref
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		*n = TypeNode{Kind: KindReference, Ref: name}
		return
	}

	kind := Kind(d.Type)
	if !kind.IsValid() {
		// Unrecognized or missing type tags degrade to the unknown shape.
		kind = ""
	}

	*n = TypeNode{
		Kind:        kind,
		Format:      d.Format,
		Description: d.Description,
		Pattern:     d.Pattern,
		MinLength:   d.MinLength,
		MaxLength:   d.MaxLength,
		Minimum:     d.Minimum,
		Maximum:     d.Maximum,
		MinItems:    d.MinItems,
		MaxItems:    d.MaxItems,
		Items:       d.Items,
		Required:    d.Required,
	}

	if len(d.Properties) > 0 {
		names := make([]string, 0, len(d.Properties))
		for name := range d.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		n.Properties = make([]Property, 0, len(names))
		for _, name := range names {
			n.Properties = append(n.Properties, Property{Name: name, Node: d.Properties[name]})
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (n *TypeNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *TypeNode) UnmarshalJSON(data []byte) error {
	var d typeNodeDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	n.fromDoc(&d)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n *TypeNode) MarshalYAML() (any, error) {
	return n.doc(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *TypeNode) UnmarshalYAML(value *yaml.Node) error {
	var d typeNodeDoc
	if err := value.Decode(&d); err != nil {
		return err
	}
	n.fromDoc(&d)
	return nil
}
