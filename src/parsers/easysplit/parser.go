// backend/src/parsers/easysplit/parser.go
package easysplit

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/username/easysplit/backend/src/models"
)

// Trip log layout: date, reference, payer, currency, amount, sharers.
// The sharers are either comma-joined in column 5 or spread over column 5
// and everything after it. Both layouts are accepted on read; the Writer
// emits the comma-joined form.
const minColumns = 6

// EasySplitParser reads the native trip log CSV format.
type EasySplitParser struct{}

func NewParser() *EasySplitParser {
	return &EasySplitParser{}
}

func (p *EasySplitParser) Parse(file io.Reader) (*models.TripLog, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // rows carry a variable number of sharer columns
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read trip log records: %w", err)
	}

	result := &models.TripLog{}
	seen := make(map[string]struct{})
	addParticipant := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		result.Participants = append(result.Participants, name)
	}

	for i, record := range records {
		if i == 0 && looksLikeHeader(record) {
			continue
		}
		if len(record) < minColumns {
			log.Printf("Skipping trip log row %d: %d columns, want at least %d", i+1, len(record), minColumns)
			result.SkippedRows++
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err != nil {
			log.Printf("Skipping trip log row %d: unparseable amount %q", i+1, record[4])
			result.SkippedRows++
			continue
		}

		entry := models.ExpenseEntry{
			Date:      strings.TrimSpace(record[0]),
			Reference: strings.TrimSpace(record[1]),
			Payer:     strings.TrimSpace(record[2]),
			Currency:  strings.ToUpper(strings.TrimSpace(record[3])),
			Amount:    amount,
			SharedBy:  sharersFromRecord(record),
		}
		result.Entries = append(result.Entries, entry)

		addParticipant(entry.Payer)
		for _, name := range entry.SharedBy {
			addParticipant(name)
		}
	}

	return result, nil
}

// looksLikeHeader reports whether the first row is a column header rather
// than data. The amount column is the tell: headers carry a label there.
func looksLikeHeader(record []string) bool {
	if len(record) <= 4 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	return err != nil
}

func sharersFromRecord(record []string) []string {
	var cells []string
	if len(record) > minColumns {
		cells = record[5:]
	} else {
		cells = strings.Split(record[5], ",")
	}

	var sharers []string
	for _, cell := range cells {
		if name := strings.TrimSpace(cell); name != "" {
			sharers = append(sharers, name)
		}
	}
	return sharers
}
