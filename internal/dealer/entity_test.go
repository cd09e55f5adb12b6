package dealer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()
	require.Len(t, r.Entities(), 10)

	for name, want := range map[string]string{
		"vehicle":         "vehicle",
		"stock-report":    "vehicle",
		"Purchase Orders": "purchase-order",
		"po":              "purchase-order",
		"FINANCE_COMPANY": "finance-company",
		"colour":          "color",
		"fy":              "financial-year",
		"leave":           "leave-request",
		"users":           "user",
	} {
		e, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, e.Name, name)
	}

	_, ok := r.Lookup("spaceship")
	assert.False(t, ok)
}

func TestRegistryIgnoresCaseAndSeparators(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{"financial-year", "Financial_Years", "FY", "financialyear"} {
		e, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "financial-year", e.Name)
	}
}

func TestRegistryColumnsAndSchemas(t *testing.T) {
	r := DefaultRegistry()
	users, ok := r.Lookup("user")
	require.True(t, ok)
	for _, f := range users.Columns() {
		assert.NotEqual(t, "password", f.Key)
	}
	assert.Len(t, r.Schemas(), len(r.Names()))
}

func TestRegistryEntitiesIsACopy(t *testing.T) {
	r := DefaultRegistry()
	list := r.Entities()
	list[0] = nil
	assert.NotNil(t, r.Entities()[0])
}

func TestStates(t *testing.T) {
	states := States()
	assert.Len(t, states, 36)
	assert.Contains(t, states, "Maharashtra")
	assert.Contains(t, states, "Ladakh")
	assert.IsIncreasing(t, states)

	states[0] = "changed"
	assert.Equal(t, "Andaman and Nicobar Islands", States()[0])
}
