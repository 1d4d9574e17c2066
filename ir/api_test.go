package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/c360studio/pedal/schema"
)

func minimalDoc() *ApiDocument {
	return &ApiDocument{
		OpenAPI: "3.0.0",
		Info:    Info{Title: "Generated API", Version: "1.0.0"},
		Paths:   map[string]*PathItem{},
		Components: Components{
			Schemas: map[string]*schema.TypeNode{},
		},
	}
}

func TestApiDocument_Validate_Version(t *testing.T) {
	doc := minimalDoc()
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	doc.OpenAPI = "3.1.0"
	if err := doc.Validate(); err == nil {
		t.Error("Validate() accepted a non-3.0 version")
	}
}

func TestApiDocument_Validate_RefIntegrity(t *testing.T) {
	doc := minimalDoc()
	doc.Components.Schemas["User"] = schema.Object(
		schema.Property{Name: "manager", Node: schema.Reference("User")},
	)

	item := &PathItem{}
	item.Set(MethodGet, &Operation{
		OperationID: "getUser",
		Responses: map[string]*Response{
			"200": {
				Description: "Successful operation",
				Content: map[string]MediaType{
					"application/json": {Schema: schema.Reference("User")},
				},
			},
		},
	})
	doc.Paths["/users/{id}"] = item

	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	// A reference to a name absent from components.schemas is rejected,
	// including references nested inside other schemas.
	doc.Components.Schemas["User"] = schema.Object(
		schema.Property{Name: "team", Node: schema.Array(schema.Reference("Team"))},
	)
	err := doc.Validate()
	if err == nil {
		t.Fatal("Validate() accepted an unresolved $ref")
	}
	if !strings.Contains(err.Error(), "Team") {
		t.Errorf("Validate() = %q, want mention of the unresolved name", err)
	}
}

func TestPathItem_MarshalJSON(t *testing.T) {
	item := &PathItem{}
	item.Set(MethodPost, &Operation{OperationID: "createUser"})
	item.Set(MethodGet, &Operation{OperationID: "listUsers"})

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := decoded["get"]; !ok {
		t.Error("serialized path item lacks lower-cased get key")
	}
	if _, ok := decoded["post"]; !ok {
		t.Error("serialized path item lacks lower-cased post key")
	}
	if _, ok := decoded["GET"]; ok {
		t.Error("serialized path item leaked an upper-cased method key")
	}
}

func TestPathItem_Methods_CanonicalOrder(t *testing.T) {
	item := &PathItem{}
	item.Set(MethodDelete, &Operation{OperationID: "deleteUser"})
	item.Set(MethodGet, &Operation{OperationID: "getUser"})
	item.Set(MethodPut, &Operation{OperationID: "updateUser"})

	got := item.Methods()
	want := []HTTPMethod{MethodGet, MethodPut, MethodDelete}
	if len(got) != len(want) {
		t.Fatalf("Methods() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Methods()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
