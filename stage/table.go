package stage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
	"github.com/c360studio/pedal/schema"
)

// systemColumns are always synthesized; declared properties with colliding
// names are dropped with a warning.
var systemColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// TableSchemaGenerator derives the storage schema from the structured
// validator module: one table per named object schema with a synthetic UUID
// primary key and audit timestamps, plus the generated schema module and the
// companion SQL migration.
//
// It consumes the (schemaName, typeNode) pairs the validator stage emitted
// as structured data; the generated source text is never re-parsed.
type TableSchemaGenerator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewTableSchemaGenerator creates the table-schema generation stage.
func NewTableSchemaGenerator(logger *slog.Logger) *TableSchemaGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableSchemaGenerator{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *TableSchemaGenerator) Name() string {
	return "database_schema_generator"
}

// MigrationPath returns the path of the SQL migration written next to the
// generated schema module at outputPath.
func MigrationPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".sql"
}

// TableSchemaPath returns the path of the validated table-schema IR written
// next to the generated schema module at outputPath.
func TableSchemaPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".json"
}

// Run reads the structured validator module and writes the generated schema
// module, the table-schema IR and the SQL migration.
func (s *TableSchemaGenerator) Run(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var module ir.ValidatorModule
	if err := artifact.ReadStructured(inputPath, &module); err != nil {
		return err
	}
	if err := module.Validate(); err != nil {
		return err
	}

	tables := s.Tables(&module)
	if len(tables) == 0 {
		s.logger.Warn("validator module contains no object schemas, emitting empty table schema")
	}

	tableSchema := &ir.TableSchema{Tables: tables}
	if err := tableSchema.Validate(); err != nil {
		return err
	}

	s.logger.Info("table schema generated",
		slog.Int("tables", len(tables)),
		slog.String("output", outputPath))

	if err := writeTextArtifact(outputPath, RenderTableSource(tableSchema), s.now()); err != nil {
		return err
	}
	if err := artifact.WriteJSON(TableSchemaPath(outputPath), tableSchema); err != nil {
		return err
	}
	return artifact.WriteText(MigrationPath(outputPath), RenderMigration(tableSchema))
}

// Tables derives one table per named object schema.
func (s *TableSchemaGenerator) Tables(module *ir.ValidatorModule) []ir.Table {
	var tables []ir.Table
	for _, named := range module.Schemas {
		node := named.TypeNode
		if node == nil || node.Kind != schema.KindObject {
			s.logger.Warn("schema is not an object, no table derived",
				slog.String("schema", named.Name))
			continue
		}
		tables = append(tables, s.table(named.Name, node))
	}
	return tables
}

func (s *TableSchemaGenerator) table(name string, node *schema.TypeNode) ir.Table {
	columns := []ir.Column{{
		Name:    "id",
		Type:    ir.ColumnUUID,
		Options: ir.ColumnOptions{PrimaryKey: true, NotNull: true},
	}}

	for _, p := range node.Properties {
		columnName := strings.ToLower(p.Name)
		if systemColumns[columnName] {
			s.logger.Warn("property collides with a system column, dropped",
				slog.String("schema", name),
				slog.String("property", p.Name))
			continue
		}
		columns = append(columns, ir.Column{
			Name: columnName,
			Type: ir.ColumnTypeForNode(p.Node),
			Options: ir.ColumnOptions{
				NotNull: node.IsRequired(p.Name),
			},
		})
	}

	columns = append(columns,
		ir.Column{Name: "created_at", Type: ir.ColumnTimestamp, Options: ir.ColumnOptions{NotNull: true}},
		ir.Column{Name: "updated_at", Type: ir.ColumnTimestamp, Options: ir.ColumnOptions{NotNull: true}},
	)

	return ir.Table{
		Name:        strings.ToLower(name),
		Columns:     columns,
		ForeignKeys: []ir.ForeignKey{},
		Indexes:     []ir.Index{},
	}
}

// RenderTableSource renders the table schema as a TypeScript module.
func RenderTableSource(ts *ir.TableSchema) string {
	var b strings.Builder

	b.WriteString("// Code generated by pedal database_schema_generator. DO NOT EDIT.\n\n")
	b.WriteString("export const tables = {\n")
	for _, t := range ts.Tables {
		fmt.Fprintf(&b, "  %s: {\n", t.Name)
		b.WriteString("    columns: {\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "      %s: { type: %q%s },\n", c.Name, c.Type.String(), columnModifiers(c))
		}
		b.WriteString("    },\n")
		b.WriteString("    relations: {},\n")
		b.WriteString("  },\n")
	}
	b.WriteString("} as const;\n")

	return b.String()
}

func columnModifiers(c ir.Column) string {
	var mods []string
	if c.Options.PrimaryKey {
		mods = append(mods, "primaryKey: true")
	}
	if c.Options.Unique {
		mods = append(mods, "unique: true")
	}
	if c.Options.NotNull {
		mods = append(mods, "notNull: true")
	}
	if c.Options.Default != "" {
		mods = append(mods, fmt.Sprintf("default: %q", c.Options.Default))
	}
	if len(mods) == 0 {
		return ""
	}
	return ", " + strings.Join(mods, ", ")
}

// RenderMigration renders the idempotent SQL migration mirroring the tables.
func RenderMigration(ts *ir.TableSchema) string {
	var b strings.Builder

	b.WriteString("-- Code generated by pedal database_schema_generator. DO NOT EDIT.\n\n")
	for _, t := range ts.Tables {
		lines := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			lines = append(lines, "  "+columnDDL(c))
		}
		fmt.Fprintf(&b, "create table if not exists %q (\n%s\n);\n\n", t.Name, strings.Join(lines, ",\n"))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func columnDDL(c ir.Column) string {
	parts := []string{fmt.Sprintf("%q %s", c.Name, c.Type.String())}
	if c.Options.PrimaryKey {
		parts = append(parts, "primary key")
	}
	if c.Options.NotNull && !c.Options.PrimaryKey {
		parts = append(parts, "not null")
	}
	if c.Options.Unique {
		parts = append(parts, "unique")
	}
	if c.Options.Default != "" {
		parts = append(parts, fmt.Sprintf("default '%s'", c.Options.Default))
	}
	return strings.Join(parts, " ")
}
