package processors

import (
	"github.com/username/easysplit/backend/src/models"
)

// settleEpsilon is the residual below which a debt counts as settled.
// The comparison is strictly greater-than.
const settleEpsilon = 1e-9

// MissingRatePolicy selects what Normalize does with currencies that carry
// debt but have no entry in the rate table.
type MissingRatePolicy string

const (
	// MissingRateFail rejects the whole run with a MissingRateError.
	MissingRateFail MissingRatePolicy = "fail"
	// MissingRateAssumeBase converts the orphaned currency 1:1 into the
	// base and logs a warning per code.
	MissingRateAssumeBase MissingRatePolicy = "assume-base"
)

// AggregateStats reports what the aggregation stage did with the entry log.
type AggregateStats struct {
	Processed int // entries that produced debt edges
	Unshared  int // entries with an empty share list, silently consumed
	Skipped   int // invalid entries (bad amount, blank payer or currency)
}

// ExpenseAggregator turns the raw entry log into per-currency debt matrices.
type ExpenseAggregator interface {
	Aggregate(entries []models.ExpenseEntry) (map[string]*models.DebtMatrix, AggregateStats)
}

// CurrencyNormalizer folds per-currency matrices into a single matrix
// denominated in the base currency of the rate table.
type CurrencyNormalizer interface {
	Normalize(byCurrency map[string]*models.DebtMatrix, rates models.RateTable) (*models.DebtMatrix, error)
}

// NettingReducer cancels mutual debts pairwise and emits the surviving
// transfers.
type NettingReducer interface {
	Net(debts *models.DebtMatrix, participants []string) ([][]float64, []models.NetTransfer)
}

// SettlementEngine runs the full pipeline over one immutable snapshot.
// Implementations hold no per-run state, so a single engine is safe for
// concurrent requests.
type SettlementEngine interface {
	Settle(snapshot models.Snapshot, rates models.RateTable) (models.SettlementReport, error)
}
