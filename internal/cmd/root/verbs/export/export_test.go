package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/test/harness"
)

func TestExportCreatesMissingDirectory(t *testing.T) {
	env := harness.New(t)
	env.Seed(t, "supplier", dealer.Input{"name": "Acme Motors", "city": "Pune"})

	path := filepath.Join(t.TempDir(), "backup", "suppliers.yaml")
	c, err := NewExportCmd()
	require.NoError(t, err)
	require.NoError(t, env.Run(c, "suppliers", "-f", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity: supplier")
	assert.Contains(t, string(data), "name: Acme Motors")
}

func TestExportToStdout(t *testing.T) {
	env := harness.New(t)
	env.Seed(t, "color", dealer.Input{"name": "Red"})

	c, err := NewExportCmd()
	require.NoError(t, err)
	require.NoError(t, env.Run(c, "colors"))
	assert.Contains(t, env.Out.String(), "name: Red")
}
