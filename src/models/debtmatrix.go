package models

import "sort"

// DebtPair identifies a directed debt edge between two participants.
type DebtPair struct {
	Debtor   string `json:"debtor"`
	Creditor string `json:"creditor"`
}

// DebtMatrix accumulates owed amounts keyed by (debtor, creditor) pairs.
// A single flat key replaces the nested per-person maps of the old
// spreadsheet tooling so iteration order and lookups stay explicit.
type DebtMatrix struct {
	amounts map[DebtPair]float64
}

func NewDebtMatrix() *DebtMatrix {
	return &DebtMatrix{amounts: make(map[DebtPair]float64)}
}

// Add accumulates amount onto the debtor -> creditor edge. Self edges are
// ignored; a participant never owes themselves.
func (m *DebtMatrix) Add(debtor, creditor string, amount float64) {
	if debtor == creditor {
		return
	}
	m.amounts[DebtPair{Debtor: debtor, Creditor: creditor}] += amount
}

// Amount returns the accumulated debt on the debtor -> creditor edge, or 0
// when none was recorded.
func (m *DebtMatrix) Amount(debtor, creditor string) float64 {
	return m.amounts[DebtPair{Debtor: debtor, Creditor: creditor}]
}

// Pairs returns every recorded edge ordered by debtor, then creditor.
func (m *DebtMatrix) Pairs() []DebtPair {
	pairs := make([]DebtPair, 0, len(m.amounts))
	for p := range m.amounts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Debtor != pairs[j].Debtor {
			return pairs[i].Debtor < pairs[j].Debtor
		}
		return pairs[i].Creditor < pairs[j].Creditor
	})
	return pairs
}

// Participants returns the sorted set of names appearing on any edge.
func (m *DebtMatrix) Participants() []string {
	seen := make(map[string]struct{})
	for p := range m.amounts {
		seen[p.Debtor] = struct{}{}
		seen[p.Creditor] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Total returns the sum over all recorded edges.
func (m *DebtMatrix) Total() float64 {
	var total float64
	for _, v := range m.amounts {
		total += v
	}
	return total
}

// Len returns the number of recorded edges.
func (m *DebtMatrix) Len() int {
	return len(m.amounts)
}
