package models

import "sort"

// RateTable maps currency codes to the factor that converts one unit of
// that currency into the base currency. The base always converts at 1.
type RateTable struct {
	Base    string             `json:"base"`
	Factors map[string]float64 `json:"factors"`
}

func NewRateTable(base string) RateTable {
	return RateTable{Base: base, Factors: map[string]float64{base: 1.0}}
}

// Factor returns the base-currency multiplier for code. The base currency
// resolves to 1 even when absent from the table.
func (t RateTable) Factor(code string) (float64, bool) {
	if code == t.Base {
		return 1.0, true
	}
	f, ok := t.Factors[code]
	return f, ok
}

// Currencies returns the sorted codes present in the table.
func (t RateTable) Currencies() []string {
	codes := make([]string, 0, len(t.Factors))
	for c := range t.Factors {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// RatesAPIResponse is the payload shape of the exchange rate endpoint.
// Quoted rates are units of each currency per one unit of the base, so the
// base-conversion factor is the reciprocal of each quote.
type RatesAPIResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}
