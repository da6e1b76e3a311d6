package models

// Participant is a member of a trip. Participants are identified by their
// trimmed name; the engine has no other notion of identity.
type Participant struct {
	Name string `json:"name"`
}

// ExpenseEntry is a single recorded expense from the trip log.
type ExpenseEntry struct {
	Date      string   `json:"date"`      // ISO date (2006-01-02)
	Reference string   `json:"reference"` // free-form description
	Payer     string   `json:"payer"`     // participant who paid
	Currency  string   `json:"currency"`  // uppercase code, e.g. "GBP"
	Amount    float64  `json:"amount"`    // in Currency, must be > 0
	SharedBy  []string `json:"shared_by"` // participants splitting the cost equally
}

// Share returns the equal split of the entry amount, or 0 when nobody
// shares it.
func (e ExpenseEntry) Share() float64 {
	if len(e.SharedBy) == 0 {
		return 0
	}
	return e.Amount / float64(len(e.SharedBy))
}

// Snapshot is the immutable input to a settlement run. Handlers and the
// service layer build one per request; the engine never reads shared state.
type Snapshot struct {
	Participants []string       `json:"participants"`
	Entries      []ExpenseEntry `json:"entries"`
}

// TripLog is the intermediate form a parser extracts from an uploaded trip
// file: the entries that parsed cleanly, every participant name seen (payers
// and sharers, first-seen order), and a count of rows that did not parse.
type TripLog struct {
	Entries      []ExpenseEntry
	Participants []string
	SkippedRows  int
}

// NetTransfer is one payment of the final settlement plan, denominated in
// the base currency.
type NetTransfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}
