package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/pedal/ir"
)

func boolPtr(v bool) *bool { return &v }

func TestModel_FoldsEntitiesIntoCoreDomain(t *testing.T) {
	req := &ir.Requirements{
		Version: "1.0.0",
		Entities: []ir.Entity{
			{
				Name: "User",
				Fields: []ir.Field{
					{Name: "id", Type: "uuid"},
					{Name: "email", Type: "email"},
					{Name: "displayName", Type: "string", Required: boolPtr(false)},
				},
			},
			{
				Name: "Product",
				Fields: []ir.Field{
					{Name: "sku", Type: "string"},
					{Name: "price", Type: "number"},
					{Name: "inStock", Type: "boolean"},
				},
			},
		},
	}

	model := Model(req)
	require.NoError(t, model.Validate())

	require.Len(t, model.Domains, 1)
	domain := model.Domains[0]
	assert.Equal(t, CoreDomainName, domain.Name)
	require.Len(t, domain.Entities, 2)

	user := domain.Entities[0]
	assert.Equal(t, "User", user.Name)
	require.Len(t, user.Attributes, 3)
	assert.True(t, user.Attributes[0].Required, "absent required flag defaults to true")
	assert.False(t, user.Attributes[2].Required)
	assert.NotNil(t, user.Attributes[0].Validation, "attributes carry an empty validation bag")
	assert.NotNil(t, user.Behaviors)

	product := domain.Entities[1]
	assert.Equal(t, "Product", product.Name)
	require.Len(t, product.Attributes, 3)
	assert.Equal(t, "number", product.Attributes[1].Type)
}
