package models

import "time"

// SettlementReport is the final output of a settlement run. All amounts
// are in BaseCurrency. Matrix rows are debtors and columns creditors,
// both indexed by the sorted Participants slice, with a zero diagonal.
type SettlementReport struct {
	BaseCurrency   string        `json:"base_currency"`
	Participants   []string      `json:"participants"`
	Matrix         [][]float64   `json:"matrix"`
	Transfers      []NetTransfer `json:"transfers"`
	Settled        bool          `json:"settled"`         // data present, nothing left over the epsilon
	NoData         bool          `json:"no_data"`         // no participants or no usable entries
	SkippedEntries int           `json:"skipped_entries"` // invalid entries dropped during aggregation
	RateSource     string        `json:"rate_source,omitempty"`
	Rates          RateTable     `json:"rates"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
