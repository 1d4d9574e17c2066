package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
	"github.com/c360studio/pedal/schema"
)

// pathParamPattern extracts {name} placeholders from an HTTP path template.
var pathParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ApiSynthesizer derives the OpenAPI 3.0 document from the action model:
// one component schema per entity, one path item per distinct path, one
// operation per (path, method) pair.
type ApiSynthesizer struct {
	logger *slog.Logger
	now    func() time.Time

	// ValidatorCommand, when non-empty, is invoked on the emitted document
	// with the output path appended as the final argument. A non-zero exit
	// fails the stage.
	ValidatorCommand []string
}

// NewApiSynthesizer creates the OpenAPI synthesis stage.
func NewApiSynthesizer(logger *slog.Logger) *ApiSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApiSynthesizer{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *ApiSynthesizer) Name() string {
	return "openapi_generator"
}

// Run reads the action model and writes the derived OpenAPI document.
func (s *ApiSynthesizer) Run(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var model ir.ActionModel
	if err := artifact.ReadStructured(inputPath, &model); err != nil {
		return err
	}
	if err := model.Validate(); err != nil {
		return err
	}

	doc := s.Synthesize(&model)
	if err := doc.Validate(); err != nil {
		return err
	}

	s.logger.Info("openapi document generated",
		slog.Int("paths", len(doc.Paths)),
		slog.Int("schemas", len(doc.Components.Schemas)),
		slog.String("output", outputPath))

	if err := writeArtifact(outputPath, doc, s.now()); err != nil {
		return err
	}

	return s.runExternalValidator(ctx, outputPath)
}

// Synthesize builds the OpenAPI document from the action model.
func (s *ApiSynthesizer) Synthesize(model *ir.ActionModel) *ir.ApiDocument {
	doc := &ir.ApiDocument{
		OpenAPI: "3.0.0",
		Info: ir.Info{
			Title:       "Generated API",
			Description: model.Description,
			Version:     versionOrDefault(model.Version),
		},
		Servers: []ir.Server{
			{URL: "http://localhost:3000", Description: "Local development server"},
		},
		Paths:      make(map[string]*ir.PathItem),
		Components: ir.Components{Schemas: make(map[string]*schema.TypeNode)},
	}

	var tagOrder []string
	tagged := make(map[string]bool)

	for _, action := range model.Actions {
		if action.HTTPMethod == "" || action.HTTPPath == "" {
			s.logger.Warn("action has no HTTP binding, skipping",
				slog.String("action", action.Name))
			continue
		}

		if !tagged[action.Entity] {
			tagged[action.Entity] = true
			tagOrder = append(tagOrder, action.Entity)
		}

		pathParams := pathParamNames(action.HTTPPath)
		nonPath := nonPathParameters(action, pathParams)

		// The entity schema is built the first time an action carries a
		// non-path parameter for it.
		if _, ok := doc.Components.Schemas[action.Entity]; !ok && len(nonPath) > 0 {
			doc.Components.Schemas[action.Entity] = entitySchema(nonPath)
		}

		op := s.operation(doc, action, pathParams, nonPath)

		item := doc.Paths[action.HTTPPath]
		if item == nil {
			item = &ir.PathItem{}
			doc.Paths[action.HTTPPath] = item
		}
		if item.Operation(action.HTTPMethod) != nil {
			// Two actions resolved to the same (path, method) pair. The
			// later one wins; the collision is surfaced but not fatal.
			s.logger.Warn("operation collision, last write wins",
				slog.String("path", action.HTTPPath),
				slog.String("method", action.HTTPMethod.String()),
				slog.String("action", action.Name))
		}
		item.Set(action.HTTPMethod, op)
	}

	for _, entity := range tagOrder {
		doc.Tags = append(doc.Tags, ir.Tag{
			Name:        entity,
			Description: fmt.Sprintf("Operations on %s", entity),
		})
	}

	return doc
}

func (s *ApiSynthesizer) operation(doc *ir.ApiDocument, action ir.Action, pathParams []string, nonPath []ir.Parameter) *ir.Operation {
	op := &ir.Operation{
		OperationID: action.Name,
		Summary:     summaryFor(action),
		Tags:        []string{action.Entity},
		Responses:   responsesFor(doc, action),
	}

	for _, name := range pathParams {
		op.Parameters = append(op.Parameters, ir.OperationParameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   pathParamSchema(action, name),
		})
	}

	// Non-path parameters surface as query parameters on GET; on
	// body-carrying methods they travel in the request body instead.
	if action.HTTPMethod == ir.MethodGet {
		for _, p := range nonPath {
			op.Parameters = append(op.Parameters, ir.OperationParameter{
				Name:        p.Name,
				In:          "query",
				Required:    p.Required,
				Description: p.Description,
				Schema:      schema.FromFieldType(p.Type),
			})
		}
	}

	if action.HTTPMethod.HasRequestBody() {
		if _, ok := doc.Components.Schemas[action.Entity]; ok {
			op.RequestBody = &ir.RequestBody{
				Required: true,
				Content: map[string]ir.MediaType{
					"application/json": {Schema: schema.Reference(action.Entity)},
				},
			}
		}
	}

	return op
}

func responsesFor(doc *ir.ApiDocument, action ir.Action) map[string]*ir.Response {
	ok := &ir.Response{Description: "Successful operation"}
	if _, hasSchema := doc.Components.Schemas[action.Entity]; hasSchema {
		node := schema.Reference(action.Entity)
		if strings.HasPrefix(action.Name, "list") {
			node = schema.Array(node)
		}
		ok.Content = map[string]ir.MediaType{
			"application/json": {Schema: node},
		}
	}
	return map[string]*ir.Response{
		"200": ok,
		"400": {Description: "Bad request"},
		"401": {Description: "Unauthorized"},
		"404": {Description: "Not found"},
		"500": {Description: "Internal server error"},
	}
}

// runExternalValidator shells out to the configured OpenAPI validator.
func (s *ApiSynthesizer) runExternalValidator(ctx context.Context, outputPath string) error {
	if len(s.ValidatorCommand) == 0 {
		return nil
	}

	args := append(append([]string{}, s.ValidatorCommand[1:]...), outputPath)
	cmd := exec.CommandContext(ctx, s.ValidatorCommand[0], args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		s.logger.Info("external openapi validation passed",
			slog.String("tool", s.ValidatorCommand[0]))
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &ExternalToolError{
		Tool:     s.ValidatorCommand[0],
		ExitCode: exitCode,
		Output:   strings.TrimSpace(string(output)),
	}
}

// pathParamNames returns the placeholder names of a path template in order
// of appearance.
func pathParamNames(path string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// nonPathParameters returns the action parameters that do not appear as path
// placeholders.
func nonPathParameters(action ir.Action, pathParams []string) []ir.Parameter {
	inPath := make(map[string]bool, len(pathParams))
	for _, name := range pathParams {
		inPath[name] = true
	}
	var out []ir.Parameter
	for _, p := range action.Parameters {
		if !inPath[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// entitySchema builds the component schema from the non-path parameters of
// the first action referencing the entity.
func entitySchema(params []ir.Parameter) *schema.TypeNode {
	node := &schema.TypeNode{Kind: schema.KindObject}
	for _, p := range params {
		prop := schema.FromFieldType(p.Type)
		prop.Description = p.Description
		node.Properties = append(node.Properties, schema.Property{Name: p.Name, Node: prop})
		if p.Required {
			node.Required = append(node.Required, p.Name)
		}
	}
	return node
}

// pathParamSchema maps a path placeholder to the schema of the matching
// action parameter, defaulting to a plain string.
func pathParamSchema(action ir.Action, name string) *schema.TypeNode {
	for _, p := range action.Parameters {
		if p.Name == name {
			return schema.FromFieldType(p.Type)
		}
	}
	return schema.String()
}

func summaryFor(action ir.Action) string {
	switch action.Type {
	case ir.ActionCreate:
		return fmt.Sprintf("Create a new %s", action.Entity)
	case ir.ActionRead:
		if strings.HasPrefix(action.Name, "list") {
			return fmt.Sprintf("List all %ss", action.Entity)
		}
		return fmt.Sprintf("Retrieve a %s", action.Entity)
	case ir.ActionUpdate:
		return fmt.Sprintf("Update a %s", action.Entity)
	case ir.ActionDelete:
		return fmt.Sprintf("Delete a %s", action.Entity)
	default:
		return action.Name
	}
}

func versionOrDefault(v string) string {
	if v == "" {
		return "1.0.0"
	}
	return v
}
