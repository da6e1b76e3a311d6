package processors

import (
	"sort"
	"strings"
	"time"

	"github.com/username/easysplit/backend/src/models"
)

// settlementEngineImpl implements the SettlementEngine interface.
type settlementEngineImpl struct {
	aggregator ExpenseAggregator
	normalizer CurrencyNormalizer
	netter     NettingReducer
}

// NewSettlementEngine wires the three pipeline stages together.
func NewSettlementEngine(aggregator ExpenseAggregator, normalizer CurrencyNormalizer, netter NettingReducer) SettlementEngine {
	return &settlementEngineImpl{
		aggregator: aggregator,
		normalizer: normalizer,
		netter:     netter,
	}
}

// Settle runs aggregate -> normalize -> net over the snapshot and wraps
// the outcome in a report. The participant axis is the union of the
// registered names and every name appearing on a debt edge, so registered
// members with no expenses still show up as zero rows.
func (e *settlementEngineImpl) Settle(snapshot models.Snapshot, rates models.RateTable) (models.SettlementReport, error) {
	byCurrency, stats := e.aggregator.Aggregate(snapshot.Entries)

	base, err := e.normalizer.Normalize(byCurrency, rates)
	if err != nil {
		return models.SettlementReport{}, err
	}

	names := unionNames(snapshot.Participants, base.Participants())
	matrix, transfers := e.netter.Net(base, names)

	return models.SettlementReport{
		BaseCurrency:   rates.Base,
		Participants:   names,
		Matrix:         matrix,
		Transfers:      transfers,
		Settled:        stats.Processed > 0 && len(transfers) == 0,
		NoData:         stats.Processed == 0,
		SkippedEntries: stats.Skipped,
		Rates:          rates,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func unionNames(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
