// Package schema provides the structural schema model shared by every
// generator in the pipeline: a closed tagged union of type-node kinds plus
// the constraint fields valid for each kind, and the recursive mapping
// algorithm that turns type nodes into generator-specific expressions.
package schema

import (
	"sort"
	"strings"
)

// Kind identifies the shape of a value described by a TypeNode.
type Kind string

const (
	// KindString describes a string value, optionally constrained by format.
	KindString Kind = "string"
	// KindNumber describes a floating point value.
	KindNumber Kind = "number"
	// KindInteger describes an integral value.
	KindInteger Kind = "integer"
	// KindBoolean describes a boolean value.
	KindBoolean Kind = "boolean"
	// KindArray describes a homogeneous list; Items carries the element shape.
	KindArray Kind = "array"
	// KindObject describes a keyed structure; Properties carries the members.
	KindObject Kind = "object"
	// KindNull describes the null value.
	KindNull Kind = "null"
	// KindReference is a symbolic reference to a named schema. References are
	// never inlined so that two named schemas may refer to each other.
	KindReference Kind = "reference"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is part of the closed vocabulary.
func (k Kind) IsValid() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean,
		KindArray, KindObject, KindNull, KindReference:
		return true
	default:
		return false
	}
}

// Property is a named member of an object node. Properties are kept as an
// ordered slice rather than a map so that emitters walk them in a stable
// order.
type Property struct {
	Name string
	Node *TypeNode
}

// TypeNode is the shared structural description of a value's shape.
// A zero Kind means the shape is unknown; every emitter maps an unknown
// shape to its accept-anything form.
type TypeNode struct {
	Kind        Kind
	Format      string
	Description string

	// String constraints.
	Pattern   string
	MinLength *int
	MaxLength *int

	// Numeric constraints.
	Minimum *float64
	Maximum *float64

	// Array constraints. Items may be nil; emitters default the element
	// shape to string.
	MinItems *int
	MaxItems *int
	Items    *TypeNode

	// Object members. An object with no properties is an open key/value
	// structure. Required lists the property names that must be present.
	Properties []Property
	Required   []string

	// Ref is the target schema name when Kind is KindReference.
	Ref string
}

// Property returns the node for the named object property, or nil.
func (n *TypeNode) Property(name string) *TypeNode {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Node
		}
	}
	return nil
}

// IsRequired returns true if the named property appears in Required.
func (n *TypeNode) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// SortProperties orders the object properties by name. Used after decoding
// from a JSON/YAML map, where the source order is not recoverable.
func (n *TypeNode) SortProperties() {
	sort.Slice(n.Properties, func(i, j int) bool {
		return n.Properties[i].Name < n.Properties[j].Name
	})
}

// String returns a new string node.
func String() *TypeNode { return &TypeNode{Kind: KindString} }

// StringFormat returns a string node with the given format.
func StringFormat(format string) *TypeNode {
	return &TypeNode{Kind: KindString, Format: format}
}

// Integer returns a new integer node.
func Integer() *TypeNode { return &TypeNode{Kind: KindInteger} }

// Number returns a new number node.
func Number() *TypeNode { return &TypeNode{Kind: KindNumber} }

// Boolean returns a new boolean node.
func Boolean() *TypeNode { return &TypeNode{Kind: KindBoolean} }

// Array returns an array node over the given element shape.
func Array(items *TypeNode) *TypeNode {
	return &TypeNode{Kind: KindArray, Items: items}
}

// Object returns an object node with the given ordered properties.
func Object(props ...Property) *TypeNode {
	return &TypeNode{Kind: KindObject, Properties: props}
}

// Reference returns a symbolic reference to the named schema.
func Reference(name string) *TypeNode {
	return &TypeNode{Kind: KindReference, Ref: name}
}

// Any returns a node with an unknown shape.
func Any() *TypeNode { return &TypeNode{} }

// FromFieldType maps a requirements field-type token to a type node.
// Unrecognized tokens map to the unknown shape, which every emitter renders
// as its accept-anything form.
func FromFieldType(fieldType string) *TypeNode {
	switch strings.ToLower(strings.TrimSpace(fieldType)) {
	case "string", "text":
		return String()
	case "uuid":
		return StringFormat("uuid")
	case "email":
		return StringFormat("email")
	case "date":
		return StringFormat("date")
	case "datetime", "timestamp":
		return StringFormat("date-time")
	case "url", "uri":
		return StringFormat("uri")
	case "integer", "int":
		return Integer()
	case "number", "float", "decimal":
		return Number()
	case "boolean", "bool":
		return Boolean()
	case "array":
		return Array(nil)
	case "object", "json":
		return Object()
	default:
		return Any()
	}
}
