package ir

import (
	"testing"

	"github.com/c360studio/pedal/schema"
)

func TestColumnTypeForNode(t *testing.T) {
	tests := []struct {
		name string
		node *schema.TypeNode
		want ColumnType
	}{
		{"nil node", nil, ColumnJSONB},
		{"unknown shape", schema.Any(), ColumnJSONB},
		{"string", schema.String(), ColumnText},
		{"uuid", schema.StringFormat("uuid"), ColumnUUID},
		{"date", schema.StringFormat("date"), ColumnDate},
		{"datetime", schema.StringFormat("date-time"), ColumnTimestamp},
		{"email keeps text", schema.StringFormat("email"), ColumnText},
		{"integer", schema.Integer(), ColumnBigint},
		{"number", schema.Number(), ColumnNumeric},
		{"boolean", schema.Boolean(), ColumnBoolean},
		{"array", schema.Array(schema.String()), ColumnJSONB},
		{"object", schema.Object(), ColumnJSONB},
		{"reference", schema.Reference("User"), ColumnUUID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnTypeForNode(tt.node); got != tt.want {
				t.Errorf("ColumnTypeForNode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTableSchema_Validate(t *testing.T) {
	valid := func() *TableSchema {
		return &TableSchema{Tables: []Table{{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: ColumnUUID, Options: ColumnOptions{PrimaryKey: true, NotNull: true}},
				{Name: "email", Type: ColumnText, Options: ColumnOptions{NotNull: true}},
			},
		}}}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	empty := &TableSchema{}
	if err := empty.Validate(); err != nil {
		t.Errorf("Validate() rejected an empty table list: %v", err)
	}

	dupColumns := valid()
	dupColumns.Tables[0].Columns[1].Name = "id"
	if err := dupColumns.Validate(); err == nil {
		t.Error("Validate() accepted duplicate column names")
	}

	badType := valid()
	badType.Tables[0].Columns[1].Type = ColumnType("varchar")
	if err := badType.Validate(); err == nil {
		t.Error("Validate() accepted an unknown column type")
	}
}
