package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
)

// ActionDeriver derives the CRUD action model from the domain model:
// exactly five actions per domain entity, with HTTP bindings built from the
// pluralized entity name and its identifier attribute.
type ActionDeriver struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewActionDeriver creates the action derivation stage.
func NewActionDeriver(logger *slog.Logger) *ActionDeriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionDeriver{logger: logger, now: time.Now}
}

// Name returns the stage identifier.
func (s *ActionDeriver) Name() string {
	return "action_model_generator"
}

// Run reads the domain model and writes the derived action model.
func (s *ActionDeriver) Run(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var model ir.DomainModel
	if err := artifact.ReadStructured(inputPath, &model); err != nil {
		return err
	}
	if err := model.Validate(); err != nil {
		return err
	}

	actions := Derive(&model)
	out := &ir.ActionModel{
		Version:     model.Version,
		Description: model.Description,
		Actions:     actions,
	}
	if err := out.Validate(); err != nil {
		return err
	}

	s.logger.Info("action model generated",
		slog.Int("actions", len(actions)),
		slog.String("output", outputPath))

	return writeArtifact(outputPath, out, s.now())
}

// Derive emits the five CRUD actions for every entity of every domain.
func Derive(model *ir.DomainModel) []ir.Action {
	var actions []ir.Action
	for _, d := range model.Domains {
		for _, e := range d.Entities {
			actions = append(actions, deriveEntityActions(e)...)
		}
	}
	return actions
}

// IdentifierAttribute picks the identifier of an entity: the first attribute
// whose name contains "id" case-insensitively, or the first attribute when
// none matches. With several id-like names the first declared one wins.
func IdentifierAttribute(e ir.DomainEntity) ir.Attribute {
	for _, a := range e.Attributes {
		if strings.Contains(strings.ToLower(a.Name), "id") {
			return a
		}
	}
	return e.Attributes[0]
}

// pluralSegment builds the collection path segment: lower-cased entity name
// with a plain "s" suffix. No irregular pluralization is attempted.
func pluralSegment(name string) string {
	return strings.ToLower(name) + "s"
}

func deriveEntityActions(e ir.DomainEntity) []ir.Action {
	id := IdentifierAttribute(e)
	collectionPath := "/" + pluralSegment(e.Name)
	itemPath := fmt.Sprintf("%s/{%s}", collectionPath, id.Name)

	idParam := ir.Parameter{
		Name:        id.Name,
		Type:        id.Type,
		Required:    true,
		Description: fmt.Sprintf("Identifier of the %s", e.Name),
	}

	// create carries every non-identifier attribute with its declared
	// requiredness; update repeats them as optional changes.
	var createParams, updateParams []ir.Parameter
	updateParams = append(updateParams, idParam)
	for _, a := range e.Attributes {
		if a.Name == id.Name {
			continue
		}
		createParams = append(createParams, ir.Parameter{
			Name:        a.Name,
			Type:        a.Type,
			Required:    a.Required,
			Description: a.Description,
		})
		updateParams = append(updateParams, ir.Parameter{
			Name:        a.Name,
			Type:        a.Type,
			Required:    false,
			Description: a.Description,
		})
	}
	if createParams == nil {
		createParams = []ir.Parameter{}
	}

	exists := fmt.Sprintf("a %s with the given %s exists", e.Name, id.Name)

	return []ir.Action{
		{
			Name:       "create" + e.Name,
			Actor:      "user",
			Entity:     e.Name,
			Type:       ir.ActionCreate,
			Parameters: createParams,
			Preconditions: []string{
				fmt.Sprintf("request payload is a valid %s", e.Name),
			},
			Postconditions: []string{
				fmt.Sprintf("a new %s is persisted", e.Name),
				fmt.Sprintf("the created %s is returned", e.Name),
			},
			HTTPMethod: ir.MethodPost,
			HTTPPath:   collectionPath,
		},
		{
			Name:          "get" + e.Name,
			Actor:         "user",
			Entity:        e.Name,
			Type:          ir.ActionRead,
			Parameters:    []ir.Parameter{idParam},
			Preconditions: []string{exists},
			Postconditions: []string{
				fmt.Sprintf("the %s identified by %s is returned", e.Name, id.Name),
			},
			HTTPMethod: ir.MethodGet,
			HTTPPath:   itemPath,
		},
		{
			Name:          "list" + e.Name + "s",
			Actor:         "user",
			Entity:        e.Name,
			Type:          ir.ActionRead,
			Parameters:    []ir.Parameter{},
			Preconditions: []string{},
			Postconditions: []string{
				fmt.Sprintf("all %s records are returned", e.Name),
			},
			HTTPMethod: ir.MethodGet,
			HTTPPath:   collectionPath,
		},
		{
			Name:          "update" + e.Name,
			Actor:         "user",
			Entity:        e.Name,
			Type:          ir.ActionUpdate,
			Parameters:    updateParams,
			Preconditions: []string{exists},
			Postconditions: []string{
				fmt.Sprintf("the %s identified by %s reflects the submitted changes", e.Name, id.Name),
			},
			HTTPMethod: ir.MethodPut,
			HTTPPath:   itemPath,
		},
		{
			Name:          "delete" + e.Name,
			Actor:         "user",
			Entity:        e.Name,
			Type:          ir.ActionDelete,
			Parameters:    []ir.Parameter{idParam},
			Preconditions: []string{exists},
			Postconditions: []string{
				fmt.Sprintf("the %s identified by %s is removed", e.Name, id.Name),
			},
			HTTPMethod: ir.MethodDelete,
			HTTPPath:   itemPath,
		},
	}
}
