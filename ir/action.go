package ir

import "fmt"

// ActionType classifies a derived action.
type ActionType string

const (
	// ActionCreate creates a new entity instance.
	ActionCreate ActionType = "create"
	// ActionRead reads one or many entity instances.
	ActionRead ActionType = "read"
	// ActionUpdate updates an existing entity instance.
	ActionUpdate ActionType = "update"
	// ActionDelete removes an entity instance.
	ActionDelete ActionType = "delete"
	// ActionCustom is reserved for hand-authored actions.
	ActionCustom ActionType = "custom"
)

// String returns the string representation of the action type.
func (t ActionType) String() string {
	return string(t)
}

// IsValid returns true if the action type is part of the closed vocabulary.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionCustom:
		return true
	default:
		return false
	}
}

// HTTPMethod is an explicit enumerated HTTP method. Operations are keyed by
// this type rather than by loosely typed lower-cased verb strings.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// methodOrder is the canonical serialization order of operations on a path.
var methodOrder = []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// String returns the string representation of the method.
func (m HTTPMethod) String() string {
	return string(m)
}

// IsValid returns true if the method is one of the supported verbs.
func (m HTTPMethod) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	default:
		return false
	}
}

// HasRequestBody reports whether operations using this method carry a
// request body.
func (m HTTPMethod) HasRequestBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// Parameter is a typed action parameter. Type uses the requirements
// field-type vocabulary.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Action is a single derived operation on an entity.
type Action struct {
	Name           string      `json:"name" yaml:"name"`
	Actor          string      `json:"actor" yaml:"actor"`
	Entity         string      `json:"entity" yaml:"entity"`
	Type           ActionType  `json:"type" yaml:"type"`
	Parameters     []Parameter `json:"parameters" yaml:"parameters"`
	Preconditions  []string    `json:"preconditions" yaml:"preconditions"`
	Postconditions []string    `json:"postconditions" yaml:"postconditions"`
	HTTPMethod     HTTPMethod  `json:"httpMethod,omitempty" yaml:"httpMethod,omitempty"`
	HTTPPath       string      `json:"httpPath,omitempty" yaml:"httpPath,omitempty"`
}

// ActionModel is the full set of derived actions.
type ActionModel struct {
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Actions     []Action `json:"actions" yaml:"actions"`
}

// Validate checks the action-model invariants: at least one action, valid
// action types, and valid HTTP methods where one is declared.
func (m *ActionModel) Validate() error {
	v := &violations{}

	if m.Version == "" {
		v.addf("version", "version is required")
	}
	if len(m.Actions) == 0 {
		v.addf("actions", "at least one action is required")
	}

	for i, a := range m.Actions {
		base := fmt.Sprintf("actions[%d]", i)
		if a.Name == "" {
			v.addf(base+".name", "action name is required")
		}
		if a.Entity == "" {
			v.addf(base+".entity", "action entity is required")
		}
		if !a.Type.IsValid() {
			v.addf(base+".type", "unknown action type %q", a.Type)
		}
		if a.HTTPMethod != "" && !a.HTTPMethod.IsValid() {
			v.addf(base+".httpMethod", "unknown HTTP method %q", a.HTTPMethod)
		}
		for j, p := range a.Parameters {
			if p.Name == "" {
				v.addf(fmt.Sprintf("%s.parameters[%d].name", base, j), "parameter name is required")
			}
		}
	}

	return v.err("action_model")
}
