package dashboard

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/theme"
	"github.com/dealerops/dealerctl/test/harness"
)

func TestDashboardText(t *testing.T) {
	env := harness.New(t)
	env.Seed(t, "vehicle", dealer.Input{"chassis_no": "MA3-0001", "model": "Swift", "price": "600000"})
	env.Seed(t, "vehicle", dealer.Input{"chassis_no": "MA3-0002", "model": "Dzire", "status": "Sold"})
	c, err := NewDashboardCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c))
	out := env.Out.String()
	assert.Contains(t, out, "In Stock")
	assert.Contains(t, out, "₹6,00,000.00")
	assert.Contains(t, out, "no active year")
}

func TestDashboardJSON(t *testing.T) {
	env := harness.New(t)
	env.Seed(t, "supplier", dealer.Input{"name": "Acme Motors"})
	env.SetOutput(common.JSON)
	c, err := NewDashboardCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c))
	var got dealer.Dashboard
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &got))
	assert.Equal(t, 1, got.Suppliers)
	assert.Empty(t, got.FinancialYear)
}

func TestWriteWrapsCardsToWidth(t *testing.T) {
	cards := len(dealer.Dashboard{}.Cards())

	var wide, narrow bytes.Buffer
	require.NoError(t, Write(&wide, dealer.Dashboard{}, theme.Current(), 200, true))
	require.NoError(t, Write(&narrow, dealer.Dashboard{}, theme.Current(), 30, true))

	// one card per row stacks every card vertically
	assert.Equal(t, cards, strings.Count(narrow.String(), "╭"))
	assert.Less(t, strings.Count(wide.String(), "\n"), strings.Count(narrow.String(), "\n"))
}
