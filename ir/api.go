package ir

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/pedal/schema"
)

// ApiDocument is the OpenAPI 3.0 subset the pipeline emits and consumes.
type ApiDocument struct {
	OpenAPI    string               `json:"openapi" yaml:"openapi"`
	Info       Info                 `json:"info" yaml:"info"`
	Servers    []Server             `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths" yaml:"paths"`
	Components Components           `json:"components" yaml:"components"`
	Tags       []Tag                `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Info carries API metadata.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

// Server declares an API server.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tag declares an API tag.
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Components holds the reusable named schemas.
type Components struct {
	Schemas map[string]*schema.TypeNode `json:"schemas" yaml:"schemas"`
}

// PathItem holds the operations of one path, keyed by the enumerated HTTP
// method. It serializes with the usual lower-cased verb keys.
type PathItem struct {
	Operations map[HTTPMethod]*Operation
}

// Operation returns the operation registered for the method, or nil.
func (p *PathItem) Operation(m HTTPMethod) *Operation {
	return p.Operations[m]
}

// Set registers the operation for the method, replacing any previous one.
func (p *PathItem) Set(m HTTPMethod, op *Operation) {
	if p.Operations == nil {
		p.Operations = make(map[HTTPMethod]*Operation)
	}
	p.Operations[m] = op
}

// Methods returns the methods present on the path in canonical order.
func (p *PathItem) Methods() []HTTPMethod {
	var out []HTTPMethod
	for _, m := range methodOrder {
		if _, ok := p.Operations[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// pathItemDoc is the wire shape of a PathItem.
type pathItemDoc struct {
	Get    *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post   *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Put    *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
}

func (p *PathItem) doc() *pathItemDoc {
	return &pathItemDoc{
		Get:    p.Operations[MethodGet],
		Post:   p.Operations[MethodPost],
		Put:    p.Operations[MethodPut],
		Patch:  p.Operations[MethodPatch],
		Delete: p.Operations[MethodDelete],
	}
}

func (p *PathItem) fromDoc(d *pathItemDoc) {
	set := func(m HTTPMethod, op *Operation) {
		if op != nil {
			p.Set(m, op)
		}
	}
	set(MethodGet, d.Get)
	set(MethodPost, d.Post)
	set(MethodPut, d.Put)
	set(MethodPatch, d.Patch)
	set(MethodDelete, d.Delete)
}

// MarshalJSON implements json.Marshaler.
func (p *PathItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PathItem) UnmarshalJSON(data []byte) error {
	var d pathItemDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	p.fromDoc(&d)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p *PathItem) MarshalYAML() (any, error) {
	return p.doc(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PathItem) UnmarshalYAML(value *yaml.Node) error {
	var d pathItemDoc
	if err := value.Decode(&d); err != nil {
		return err
	}
	p.fromDoc(&d)
	return nil
}

// Operation describes a single API operation.
type Operation struct {
	OperationID string               `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []OperationParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

// OperationParameter describes a path or query parameter.
type OperationParameter struct {
	Name        string           `json:"name" yaml:"name"`
	In          string           `json:"in" yaml:"in"`
	Required    bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      *schema.TypeNode `json:"schema" yaml:"schema"`
}

// RequestBody describes an operation request body.
type RequestBody struct {
	Required bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

// MediaType pairs a media type with its schema.
type MediaType struct {
	Schema *schema.TypeNode `json:"schema" yaml:"schema"`
}

// Response describes an operation response.
type Response struct {
	Description string               `json:"description" yaml:"description"`
	Content     map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

// Validate checks the document invariants: the version string must start
// with "3.0" and every $ref must resolve to an entry in components.schemas.
func (d *ApiDocument) Validate() error {
	v := &violations{}

	if !strings.HasPrefix(d.OpenAPI, "3.0") {
		v.addf("openapi", "version %q is not an OpenAPI 3.0 document", d.OpenAPI)
	}
	if d.Info.Title == "" {
		v.addf("info.title", "title is required")
	}
	if d.Info.Version == "" {
		v.addf("info.version", "version is required")
	}

	checkRef := func(n *schema.TypeNode, path string) {
		walkRefs(n, path, func(ref, at string) {
			if _, ok := d.Components.Schemas[ref]; !ok {
				v.addf(at, "$ref %q does not resolve to components.schemas", ref)
			}
		})
	}

	for name, node := range d.Components.Schemas {
		if node == nil {
			v.addf("components.schemas."+name, "schema is empty")
			continue
		}
		checkRef(node, "components.schemas."+name)
	}

	for path, item := range d.Paths {
		if item == nil {
			v.addf("paths."+path, "path item is empty")
			continue
		}
		for _, m := range item.Methods() {
			op := item.Operation(m)
			base := fmt.Sprintf("paths.%s.%s", path, strings.ToLower(m.String()))
			for i, p := range op.Parameters {
				if p.Schema != nil {
					checkRef(p.Schema, fmt.Sprintf("%s.parameters[%d].schema", base, i))
				}
			}
			if op.RequestBody != nil {
				for mt, media := range op.RequestBody.Content {
					if media.Schema != nil {
						checkRef(media.Schema, fmt.Sprintf("%s.requestBody.content.%s.schema", base, mt))
					}
				}
			}
			for code, resp := range op.Responses {
				if resp == nil {
					continue
				}
				for mt, media := range resp.Content {
					if media.Schema != nil {
						checkRef(media.Schema, fmt.Sprintf("%s.responses.%s.content.%s.schema", base, code, mt))
					}
				}
			}
		}
	}

	return v.err("api_document")
}

// walkRefs visits every reference node reachable from n.
func walkRefs(n *schema.TypeNode, path string, fn func(ref, path string)) {
	if n == nil {
		return
	}
	if n.Kind == schema.KindReference {
		fn(n.Ref, path)
		return
	}
	if n.Items != nil {
		walkRefs(n.Items, path+".items", fn)
	}
	for _, p := range n.Properties {
		walkRefs(p.Node, path+".properties."+p.Name, fn)
	}
}
