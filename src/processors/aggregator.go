package processors

import (
	"strings"

	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/models"
)

// expenseAggregatorImpl implements the ExpenseAggregator interface.
type expenseAggregatorImpl struct{}

// NewExpenseAggregator creates a new instance of ExpenseAggregator.
func NewExpenseAggregator() ExpenseAggregator {
	return &expenseAggregatorImpl{}
}

// Aggregate walks the entry log once. Each sharer owes the payer one equal
// share; the payer's own share never becomes an edge. Invalid entries are
// counted and dropped, never aborting the batch.
func (a *expenseAggregatorImpl) Aggregate(entries []models.ExpenseEntry) (map[string]*models.DebtMatrix, AggregateStats) {
	byCurrency := make(map[string]*models.DebtMatrix)
	var stats AggregateStats

	for _, entry := range entries {
		if !isValidEntry(entry) {
			stats.Skipped++
			if logger.L != nil {
				logger.L.Warn("Skipping invalid expense entry",
					"reference", entry.Reference,
					"payer", entry.Payer,
					"currency", entry.Currency,
					"amount", entry.Amount)
			}
			continue
		}
		if len(entry.SharedBy) == 0 {
			stats.Unshared++
			continue
		}

		matrix, ok := byCurrency[entry.Currency]
		if !ok {
			matrix = models.NewDebtMatrix()
			byCurrency[entry.Currency] = matrix
		}

		share := entry.Share()
		for _, sharer := range entry.SharedBy {
			// Add is a no-op when sharer == payer.
			matrix.Add(sharer, entry.Payer, share)
		}
		stats.Processed++
	}

	return byCurrency, stats
}

func isValidEntry(e models.ExpenseEntry) bool {
	if strings.TrimSpace(e.Payer) == "" || strings.TrimSpace(e.Currency) == "" {
		return false
	}
	return e.Amount > 0
}
