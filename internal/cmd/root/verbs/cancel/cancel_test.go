package cancel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdpkg "github.com/dealerops/dealerctl/internal/cmd"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/test/harness"
)

func TestCancelLeaveRequest(t *testing.T) {
	env := harness.New(t)
	id := env.Seed(t, "leave-request", dealer.Input{
		"employee":   "Ravi Kumar",
		"leave_type": "Casual",
		"from_date":  "01/04/2024",
		"to_date":    "03/04/2024",
	})
	c, err := NewCancelCmd()
	require.NoError(t, err)

	require.NoError(t, env.Run(c, "leave", id))
	assert.Equal(t, "Leave request Ravi Kumar cancelled\n", env.Out.String())

	row, err := env.Service(t).Get(context.Background(), env.Entity(t, "leave-request"), id)
	require.NoError(t, err)
	assert.Equal(t, dealer.StatusCancelled, row.Fields["status"])

	c, err = NewCancelCmd()
	require.NoError(t, err)
	err = env.Run(c, "leave", id)
	var execErr *cmdpkg.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Msg, "Only pending")
}

func TestCancelNeedsRecord(t *testing.T) {
	env := harness.New(t)
	c, err := NewCancelCmd()
	require.NoError(t, err)

	assert.Error(t, env.Run(c, "purchase-order"))
}
