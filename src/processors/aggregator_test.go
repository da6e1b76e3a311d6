package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/easysplit/backend/src/models"
)

func TestAggregateSplitsEqually(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Payer: "alice", Currency: "GBP", Amount: 90, SharedBy: []string{"alice", "bob", "carol"}},
	}

	byCurrency, stats := NewExpenseAggregator().Aggregate(entries)

	require.Contains(t, byCurrency, "GBP")
	m := byCurrency["GBP"]
	assert.Equal(t, 30.0, m.Amount("bob", "alice"))
	assert.Equal(t, 30.0, m.Amount("carol", "alice"))
	// The payer's own share is consumed, never recorded as an edge.
	assert.Equal(t, 0.0, m.Amount("alice", "alice"))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, stats.Processed)
}

func TestAggregateGroupsByCurrency(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Payer: "alice", Currency: "GBP", Amount: 10, SharedBy: []string{"bob"}},
		{Payer: "alice", Currency: "EUR", Amount: 20, SharedBy: []string{"bob"}},
		{Payer: "bob", Currency: "GBP", Amount: 6, SharedBy: []string{"alice", "bob"}},
	}

	byCurrency, stats := NewExpenseAggregator().Aggregate(entries)

	require.Len(t, byCurrency, 2)
	assert.Equal(t, 10.0, byCurrency["GBP"].Amount("bob", "alice"))
	assert.Equal(t, 3.0, byCurrency["GBP"].Amount("alice", "bob"))
	assert.Equal(t, 20.0, byCurrency["EUR"].Amount("bob", "alice"))
	assert.Equal(t, 3, stats.Processed)
}

func TestAggregateSkipsBadEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry models.ExpenseEntry
	}{
		{
			name:  "zero amount",
			entry: models.ExpenseEntry{Payer: "alice", Currency: "GBP", Amount: 0, SharedBy: []string{"bob"}},
		},
		{
			name:  "negative amount",
			entry: models.ExpenseEntry{Payer: "alice", Currency: "GBP", Amount: -5, SharedBy: []string{"bob"}},
		},
		{
			name:  "blank payer",
			entry: models.ExpenseEntry{Payer: "  ", Currency: "GBP", Amount: 5, SharedBy: []string{"bob"}},
		},
		{
			name:  "blank currency",
			entry: models.ExpenseEntry{Payer: "alice", Currency: "", Amount: 5, SharedBy: []string{"bob"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			byCurrency, stats := NewExpenseAggregator().Aggregate([]models.ExpenseEntry{tt.entry})

			assert.Empty(t, byCurrency)
			assert.Equal(t, 1, stats.Skipped)
			assert.Equal(t, 0, stats.Processed)
		})
	}
}

func TestAggregateSkipsEmptyShareList(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Payer: "alice", Currency: "GBP", Amount: 40, SharedBy: nil},
		{Payer: "alice", Currency: "GBP", Amount: 10, SharedBy: []string{"bob"}},
	}

	byCurrency, stats := NewExpenseAggregator().Aggregate(entries)

	assert.Equal(t, 10.0, byCurrency["GBP"].Amount("bob", "alice"))
	assert.Equal(t, 1, stats.Unshared)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
}

// Every entry's emitted shares must add up to the amount minus the payer's
// own cut, whatever the sharer list looks like.
func TestAggregateConservesAmounts(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Payer: "alice", Currency: "GBP", Amount: 100, SharedBy: []string{"alice", "bob", "carol"}},
		{Payer: "bob", Currency: "GBP", Amount: 33.34, SharedBy: []string{"alice", "carol"}},
		{Payer: "carol", Currency: "GBP", Amount: 7.77, SharedBy: []string{"carol"}},
	}

	byCurrency, _ := NewExpenseAggregator().Aggregate(entries)

	// alice's third of 100 and carol's whole 7.77 stay with the payer.
	wantTotal := (100 - 100.0/3) + 33.34
	assert.InDelta(t, wantTotal, byCurrency["GBP"].Total(), 1e-9)
}
