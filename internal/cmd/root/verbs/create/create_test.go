package create

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/test/harness"
)

func TestCreateFromFlags(t *testing.T) {
	env := harness.New(t)
	c, err := NewCreateCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "supplier", "--set", "name=Acme Motors", "--set", "city=Pune"))
	assert.Equal(t, "Supplier Acme Motors created\n", env.Out.String())

	rows, err := env.Service(t).List(context.Background(), env.Entity(t, "supplier"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pune", rows[0].Fields["city"])
}

func TestCreateFromFileWithOverride(t *testing.T) {
	env := harness.New(t)
	path := filepath.Join(t.TempDir(), "po.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
po_no: PO-7
date: 01/04/2024
supplier: Acme Motors
model: Swift
quantity: 2
amount: 1200000
`), 0o600))
	env.SetOutput(common.JSON)
	c, err := NewCreateCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "po", "-f", path, "--set", "quantity=3"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &got))
	assert.Equal(t, true, got["success"])
	record := got["record"].(map[string]any)
	assert.Equal(t, "2024-04-01", record["date"])
	assert.EqualValues(t, 3, record["quantity"])
	assert.Equal(t, "Pending", record["status"])
}

func TestCreateReportsFieldErrors(t *testing.T) {
	env := harness.New(t)
	c, err := NewCreateCmd()
	require.NoError(t, err)

	err = env.Run(c, "vehicle", "--set", "model=Swift", "--set", "price=lots")
	var execErr *cmdpkg.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.NotEmpty(t, execErr.Attrs)
	assert.Empty(t, env.Out.String())

	rows, err := env.Service(t).List(context.Background(), env.Entity(t, "vehicle"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateRejectsMalformedSet(t *testing.T) {
	env := harness.New(t)
	c, err := NewCreateCmd()
	require.NoError(t, err)

	err = env.Run(c, "color", "--set", "name")
	var cfgErr *cmdpkg.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCreateFirstUserWithoutSession(t *testing.T) {
	env := harness.New(t)
	env.Config.Set(common.AuthRequiredConfigPath, true)
	c, err := NewCreateCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "user",
		"--set", "username=admin", "--set", "full_name=Admin", "--set", "role=admin",
		"--set", "password=correct horse"))

	// the second user needs a session
	c, err = NewCreateCmd()
	require.NoError(t, err)
	err = env.Run(c, "user",
		"--set", "username=staff1", "--set", "full_name=Staff", "--set", "password=battery staple")
	var execErr *cmdpkg.ExecutionError
	require.ErrorAs(t, err, &execErr)
}
