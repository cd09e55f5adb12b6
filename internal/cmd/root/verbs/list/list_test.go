package list

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/test/harness"
)

func seedSuppliers(t *testing.T, env *harness.Env, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		city := "Pune"
		if i%2 == 0 {
			city = "Nashik"
		}
		env.Seed(t, "supplier", dealer.Input{
			"name": fmt.Sprintf("Supplier %02d", i),
			"city": city,
		})
	}
}

func TestListText(t *testing.T) {
	env := harness.New(t)
	seedSuppliers(t, env, 3)
	c, err := NewListCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "suppliers"))
	out := env.Out.String()
	assert.Contains(t, out, "Supplier 01")
	assert.Contains(t, out, "Supplier 03")
	assert.Contains(t, out, "Page 1 of 1 · 3 records")
}

func TestListPagesAndClampsPage(t *testing.T) {
	env := harness.New(t)
	seedSuppliers(t, env, 6)
	c, err := NewListCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "supplier", "--page-size", "5", "--page", "2"))
	out := env.Out.String()
	assert.Contains(t, out, "Supplier 06")
	assert.NotContains(t, out, "Supplier 01")
	assert.Contains(t, out, "Page 2 of 2 · 6 records")

	c, err = NewListCmd()
	require.NoError(t, err)
	require.NoError(t, env.Run(c, "supplier", "--page-size", "5", "--page", "9"))
	assert.Contains(t, env.Out.String(), "Page 2 of 2")
}

func TestListFilterAndSortJSON(t *testing.T) {
	env := harness.New(t)
	seedSuppliers(t, env, 4)
	env.SetOutput(common.JSON)
	c, err := NewListCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "vendors", "--filter", "NASHIK", "--sort", "-name"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Supplier 04", rows[0]["name"])
	assert.Equal(t, "Supplier 02", rows[1]["name"])
	assert.NotEmpty(t, rows[0]["id"])
}

func TestListRejectsUnknownSortColumn(t *testing.T) {
	env := harness.New(t)
	c, err := NewListCmd()
	require.NoError(t, err)

	err = env.Run(c, "supplier", "--sort", "nope")
	var cfgErr *cmdpkg.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "cannot sort suppliers by \"nope\"")
}

func TestListEmpty(t *testing.T) {
	env := harness.New(t)
	c, err := NewListCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "colors"))
	assert.Contains(t, env.Out.String(), "No records to display.")
}
