package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/easysplit/backend/src/models"
)

func TestNetOneWayDebt(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("bob", "alice", 50)

	matrix, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob"})

	require.Len(t, transfers, 1)
	assert.Equal(t, models.NetTransfer{From: "bob", To: "alice", Amount: 50}, transfers[0])

	// Rows are debtors, columns creditors, sorted names.
	assert.Equal(t, 50.0, matrix[1][0])
	assert.Equal(t, 0.0, matrix[0][1])
}

func TestNetCancelsMutualDebt(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("bob", "alice", 50)
	debts.Add("alice", "bob", 40)

	_, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob"})

	require.Len(t, transfers, 1)
	assert.Equal(t, "bob", transfers[0].From)
	assert.Equal(t, "alice", transfers[0].To)
	assert.InDelta(t, 10, transfers[0].Amount, 1e-9)
}

func TestNetExactOffsetSettles(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("bob", "alice", 25)
	debts.Add("alice", "bob", 25)

	matrix, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob"})

	assert.Empty(t, transfers)
	assert.Equal(t, 0.0, matrix[0][1])
	assert.Equal(t, 0.0, matrix[1][0])
}

func TestNetEpsilonBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		residual      float64
		wantTransfers int
	}{
		{name: "exactly epsilon is settled", residual: 1e-9, wantTransfers: 0},
		{name: "below epsilon is settled", residual: 5e-10, wantTransfers: 0},
		{name: "above epsilon survives", residual: 2e-9, wantTransfers: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			debts := models.NewDebtMatrix()
			debts.Add("bob", "alice", tt.residual)

			_, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob"})
			assert.Len(t, transfers, tt.wantTransfers)
		})
	}
}

// A three-way cycle of equal debts nets pairwise only; the plan keeps all
// three transfers rather than collapsing the cycle.
func TestNetKeepsCycles(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("alice", "bob", 10)
	debts.Add("bob", "carol", 10)
	debts.Add("carol", "alice", 10)

	_, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob", "carol"})

	want := []models.NetTransfer{
		{From: "alice", To: "bob", Amount: 10},
		{From: "bob", To: "carol", Amount: 10},
		{From: "carol", To: "alice", Amount: 10},
	}
	assert.Equal(t, want, transfers)
}

func TestNetDeterministicOrder(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("dave", "alice", 1)
	debts.Add("bob", "carol", 2)
	debts.Add("bob", "alice", 3)

	// Participant input order must not matter.
	_, first := NewNettingReducer().Net(debts, []string{"dave", "carol", "bob", "alice"})
	_, second := NewNettingReducer().Net(debts, []string{"alice", "bob", "carol", "dave"})

	assert.Equal(t, first, second)
	want := []models.NetTransfer{
		{From: "bob", To: "alice", Amount: 3},
		{From: "bob", To: "carol", Amount: 2},
		{From: "dave", To: "alice", Amount: 1},
	}
	assert.Equal(t, want, first)
}

func TestNetIncludesQuietParticipants(t *testing.T) {
	t.Parallel()

	debts := models.NewDebtMatrix()
	debts.Add("bob", "alice", 5)

	matrix, transfers := NewNettingReducer().Net(debts, []string{"alice", "bob", "zoe"})

	require.Len(t, matrix, 3)
	for i := range matrix {
		assert.Len(t, matrix[i], 3)
	}
	require.Len(t, transfers, 1)
	for _, tr := range transfers {
		assert.NotEqual(t, tr.From, tr.To)
	}
}
