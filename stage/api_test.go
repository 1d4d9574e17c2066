package stage

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/pedal/ir"
)

func userActionModel() *ir.ActionModel {
	model := &ir.DomainModel{
		Version: "1.0.0",
		Domains: []ir.Domain{{
			Name:     CoreDomainName,
			Entities: []ir.DomainEntity{userEntity()},
		}},
	}
	return &ir.ActionModel{
		Version: model.Version,
		Actions: Derive(model),
	}
}

func TestSynthesize_Document(t *testing.T) {
	s := NewApiSynthesizer(nil)
	doc := s.Synthesize(userActionModel())
	require.NoError(t, doc.Validate())

	assert.Equal(t, "3.0.0", doc.OpenAPI)
	assert.Equal(t, "Generated API", doc.Info.Title)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "http://localhost:3000", doc.Servers[0].URL)

	require.Contains(t, doc.Paths, "/users")
	require.Contains(t, doc.Paths, "/users/{id}")

	collection := doc.Paths["/users"]
	assert.NotNil(t, collection.Operation(ir.MethodPost))
	assert.NotNil(t, collection.Operation(ir.MethodGet))

	item := doc.Paths["/users/{id}"]
	assert.NotNil(t, item.Operation(ir.MethodGet))
	assert.NotNil(t, item.Operation(ir.MethodPut))
	assert.NotNil(t, item.Operation(ir.MethodDelete))

	require.Contains(t, doc.Components.Schemas, "User")
	user := doc.Components.Schemas["User"]
	assert.NotNil(t, user.Property("email"))
	assert.Nil(t, user.Property("id"), "identifier stays out of the entity schema")

	require.Len(t, doc.Tags, 1)
	assert.Equal(t, "User", doc.Tags[0].Name)
}

func TestSynthesize_Operations(t *testing.T) {
	s := NewApiSynthesizer(nil)
	doc := s.Synthesize(userActionModel())

	create := doc.Paths["/users"].Operation(ir.MethodPost)
	require.NotNil(t, create.RequestBody)
	assert.True(t, create.RequestBody.Required)
	media := create.RequestBody.Content["application/json"]
	require.NotNil(t, media.Schema)
	assert.Equal(t, "User", media.Schema.Ref)

	get := doc.Paths["/users/{id}"].Operation(ir.MethodGet)
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "id", get.Parameters[0].Name)
	assert.Equal(t, "path", get.Parameters[0].In)
	assert.True(t, get.Parameters[0].Required)
	assert.Equal(t, "uuid", get.Parameters[0].Schema.Format)

	// list responses wrap the entity reference in an array.
	list := doc.Paths["/users"].Operation(ir.MethodGet)
	ok := list.Responses["200"]
	require.NotNil(t, ok)
	listSchema := ok.Content["application/json"].Schema
	require.NotNil(t, listSchema)
	require.NotNil(t, listSchema.Items)
	assert.Equal(t, "User", listSchema.Items.Ref)

	for _, code := range []string{"200", "400", "401", "404", "500"} {
		assert.Contains(t, create.Responses, code)
	}
}

func TestSynthesize_SkipsUnboundActions(t *testing.T) {
	model := userActionModel()
	model.Actions = append(model.Actions, ir.Action{
		Name:   "auditUser",
		Actor:  "user",
		Entity: "User",
		Type:   ir.ActionCustom,
		// No HTTP binding.
	})

	s := NewApiSynthesizer(nil)
	doc := s.Synthesize(model)

	for _, item := range doc.Paths {
		for _, m := range item.Methods() {
			assert.NotEqual(t, "auditUser", item.Operation(m).OperationID)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := NewApiSynthesizer(nil)

	first, err := yaml.Marshal(s.Synthesize(userActionModel()))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := yaml.Marshal(s.Synthesize(userActionModel()))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
