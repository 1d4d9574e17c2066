package ir

import (
	"fmt"

	"github.com/c360studio/pedal/schema"
)

// ColumnType is the closed set of storage column types.
type ColumnType string

const (
	ColumnText      ColumnType = "text"
	ColumnBigint    ColumnType = "bigint"
	ColumnNumeric   ColumnType = "numeric"
	ColumnBoolean   ColumnType = "boolean"
	ColumnDate      ColumnType = "date"
	ColumnTimestamp ColumnType = "timestamptz"
	ColumnUUID      ColumnType = "uuid"
	ColumnJSONB     ColumnType = "jsonb"
)

// String returns the SQL spelling of the column type.
func (t ColumnType) String() string {
	return string(t)
}

// IsValid returns true if the column type is part of the closed set.
func (t ColumnType) IsValid() bool {
	switch t {
	case ColumnText, ColumnBigint, ColumnNumeric, ColumnBoolean,
		ColumnDate, ColumnTimestamp, ColumnUUID, ColumnJSONB:
		return true
	default:
		return false
	}
}

// ColumnTypeForNode maps a structural type node to a column type. Scalars
// map directly; nested objects and arrays map to a JSON-capable column; the
// unknown shape shares the same JSON fallback as the other generators.
func ColumnTypeForNode(n *schema.TypeNode) ColumnType {
	if n == nil || !n.Kind.IsValid() {
		return ColumnJSONB
	}
	switch n.Kind {
	case schema.KindReference:
		return ColumnUUID
	case schema.KindString:
		switch n.Format {
		case "uuid":
			return ColumnUUID
		case "date":
			return ColumnDate
		case "date-time":
			return ColumnTimestamp
		default:
			return ColumnText
		}
	case schema.KindInteger:
		return ColumnBigint
	case schema.KindNumber:
		return ColumnNumeric
	case schema.KindBoolean:
		return ColumnBoolean
	case schema.KindArray, schema.KindObject, schema.KindNull:
		return ColumnJSONB
	default:
		return ColumnJSONB
	}
}

// ColumnOptions carries column modifiers.
type ColumnOptions struct {
	PrimaryKey bool   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Unique     bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	NotNull    bool   `json:"notNull,omitempty" yaml:"notNull,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	Length     int    `json:"length,omitempty" yaml:"length,omitempty"`
	Precision  int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale      int    `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Column is a single table column.
type Column struct {
	Name    string        `json:"name" yaml:"name"`
	Type    ColumnType    `json:"type" yaml:"type"`
	Options ColumnOptions `json:"options" yaml:"options"`
}

// ForeignKey declares a relation between tables.
type ForeignKey struct {
	Column           string `json:"column" yaml:"column"`
	ReferencesTable  string `json:"referencesTable" yaml:"referencesTable"`
	ReferencesColumn string `json:"referencesColumn" yaml:"referencesColumn"`
}

// Index declares a table index.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Table is a single storage table.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	ForeignKeys []ForeignKey `json:"foreignKeys" yaml:"foreignKeys"`
	Indexes     []Index      `json:"indexes" yaml:"indexes"`
}

// TableSchema is the storage schema derived from the named object schemas.
type TableSchema struct {
	Tables []Table `json:"tables" yaml:"tables"`
}

// Validate checks the table-schema invariants: unique table and column
// names, and column types from the closed set. An empty table list is valid;
// it mirrors a validator module with no object schemas.
func (s *TableSchema) Validate() error {
	v := &violations{}

	tables := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		base := fmt.Sprintf("tables[%d]", i)
		if t.Name == "" {
			v.addf(base+".name", "table name is required")
		} else if tables[t.Name] {
			v.addf(base+".name", "duplicate table name %q", t.Name)
		}
		tables[t.Name] = true

		if len(t.Columns) == 0 {
			v.addf(base+".columns", "table %q must declare at least one column", t.Name)
		}
		cols := make(map[string]bool, len(t.Columns))
		for j, c := range t.Columns {
			colBase := fmt.Sprintf("%s.columns[%d]", base, j)
			if c.Name == "" {
				v.addf(colBase+".name", "column name is required")
			} else if cols[c.Name] {
				v.addf(colBase+".name", "duplicate column name %q", c.Name)
			}
			cols[c.Name] = true
			if !c.Type.IsValid() {
				v.addf(colBase+".type", "unknown column type %q", c.Type)
			}
		}
	}

	return v.err("table_schema")
}
