package ir

import (
	"strings"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestField_IsRequired(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  bool
	}{
		{"absent defaults to required", Field{Name: "email"}, true},
		{"explicit true", Field{Name: "email", Required: boolPtr(true)}, true},
		{"explicit false", Field{Name: "email", Required: boolPtr(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.IsRequired(); got != tt.want {
				t.Errorf("IsRequired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirements_Validate(t *testing.T) {
	valid := Requirements{
		Version: "1.0.0",
		Entities: []Entity{
			{Name: "User", Fields: []Field{{Name: "email", Type: "email"}}},
		},
	}

	tests := []struct {
		name    string
		modify  func(*Requirements)
		wantErr string
	}{
		{"valid", func(r *Requirements) {}, ""},
		{"missing version", func(r *Requirements) { r.Version = "" }, "version"},
		{"no entities", func(r *Requirements) { r.Entities = nil }, "at least one entity"},
		{"entity without fields", func(r *Requirements) { r.Entities[0].Fields = nil }, "at least one field"},
		{"entity without name", func(r *Requirements) { r.Entities[0].Name = "" }, "entity name"},
		{
			"duplicate field names",
			func(r *Requirements) {
				r.Entities[0].Fields = append(r.Entities[0].Fields, Field{Name: "email", Type: "string"})
			},
			"duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Entities = []Entity{{
				Name:   valid.Entities[0].Name,
				Fields: append([]Field(nil), valid.Entities[0].Fields...),
			}}
			tt.modify(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !IsValidationError(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
