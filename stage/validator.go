package stage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
	"github.com/c360studio/pedal/schema"
)

// ValidatorGenerator derives the Zod validator module from the OpenAPI
// document. Every named schema becomes a lazily bound validator constant so
// mutually referencing schemas resolve, followed by the type aliases and the
// per-operation validators.
//
// Besides the generated source it writes the structured module (schema name
// to type node pairs) as a sibling artifact; the table-schema generator
// consumes that structure instead of scraping the emitted source text.
type ValidatorGenerator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewValidatorGenerator creates the validator generation stage.
func NewValidatorGenerator(logger *slog.Logger) *ValidatorGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidatorGenerator{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *ValidatorGenerator) Name() string {
	return "zod_schema_generator"
}

// StructuredPath returns the path of the structured module written next to
// the generated source at outputPath.
func StructuredPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".schemas.json"
}

// Run reads the OpenAPI document and writes the generated validator source
// plus the structured module.
func (s *ValidatorGenerator) Run(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var doc ir.ApiDocument
	if err := artifact.ReadStructured(inputPath, &doc); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	module := s.Generate(&doc)
	if err := module.Validate(); err != nil {
		return err
	}

	source := RenderZodSource(module)

	s.logger.Info("validator module generated",
		slog.Int("schemas", len(module.Schemas)),
		slog.Int("operations", len(module.Operations)),
		slog.String("output", outputPath))

	if err := writeTextArtifact(outputPath, source, s.now()); err != nil {
		return err
	}
	return artifact.WriteJSON(StructuredPath(outputPath), module)
}

// Generate builds the validator module from the document.
func (s *ValidatorGenerator) Generate(doc *ir.ApiDocument) *ir.ValidatorModule {
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	module := &ir.ValidatorModule{Version: doc.Info.Version}
	for _, name := range names {
		node := doc.Components.Schemas[name]
		module.Schemas = append(module.Schemas, ir.NamedSchema{
			Name:       name,
			TypeNode:   node,
			Expression: schema.ZodExpr(node),
		})
	}

	paths := make([]string, 0, len(doc.Paths))
	for path := range doc.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := doc.Paths[path]
		for _, method := range item.Methods() {
			op := item.Operation(method)
			if op.OperationID == "" {
				s.logger.Warn("operation has no operationId, skipping",
					slog.String("path", path),
					slog.String("method", method.String()))
				continue
			}
			module.Operations = append(module.Operations, operationValidator(op))
		}
	}

	return module
}

func operationValidator(op *ir.Operation) ir.OperationValidator {
	out := ir.OperationValidator{OperationID: op.OperationID}

	if len(op.Parameters) > 0 {
		parts := make([]string, 0, len(op.Parameters))
		for _, p := range op.Parameters {
			expr := schema.ZodExpr(p.Schema)
			if !p.Required {
				expr += ".optional()"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, expr))
		}
		out.Parameters = fmt.Sprintf("z.object({ %s })", strings.Join(parts, ", "))
	}

	if op.RequestBody != nil {
		if media, ok := op.RequestBody.Content["application/json"]; ok && media.Schema != nil {
			out.RequestBody = schema.ZodExpr(media.Schema)
		}
	}

	if resp, ok := op.Responses["200"]; ok && resp != nil {
		if media, ok := resp.Content["application/json"]; ok && media.Schema != nil {
			out.Response = schema.ZodExpr(media.Schema)
		}
	}

	return out
}

// RenderZodSource renders the validator module as a TypeScript source file.
// The output is a pure function of the module, so repeated generation yields
// byte-identical text.
func RenderZodSource(module *ir.ValidatorModule) string {
	var b strings.Builder

	b.WriteString("// Code generated by pedal zod_schema_generator. DO NOT EDIT.\n\n")
	b.WriteString("import { z } from \"zod\";\n\n")

	for _, s := range module.Schemas {
		fmt.Fprintf(&b, "export const %sSchema = z.lazy(() => %s);\n", s.Name, s.Expression)
	}
	b.WriteString("\n")
	for _, s := range module.Schemas {
		fmt.Fprintf(&b, "export type %s = z.infer<typeof %sSchema>;\n", s.Name, s.Name)
	}

	if len(module.Operations) > 0 {
		b.WriteString("\n")
		for _, op := range module.Operations {
			if op.Parameters != "" {
				fmt.Fprintf(&b, "export const %sParams = %s;\n", op.OperationID, op.Parameters)
			}
			if op.RequestBody != "" {
				fmt.Fprintf(&b, "export const %sRequest = %s;\n", op.OperationID, op.RequestBody)
			}
			if op.Response != "" {
				fmt.Fprintf(&b, "export const %sResponse = %s;\n", op.OperationID, op.Response)
			}
		}
	}

	return b.String()
}
