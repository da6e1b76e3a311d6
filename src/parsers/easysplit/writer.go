// backend/src/parsers/easysplit/writer.go
package easysplit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/security/validation"
)

var exportHeader = []string{"date", "reference", "payer", "currency", "amount", "shared_by"}

// Writer renders expense entries back into the trip log CSV layout. Text
// cells are sanitized so a downloaded file cannot smuggle spreadsheet
// formulas.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(out io.Writer, entries []models.ExpenseEntry) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write trip log header: %w", err)
	}
	for _, entry := range entries {
		sharers := make([]string, 0, len(entry.SharedBy))
		for _, name := range entry.SharedBy {
			sharers = append(sharers, validation.SanitizeForFormulaInjection(name))
		}
		row := []string{
			validation.SanitizeForFormulaInjection(entry.Date),
			validation.SanitizeForFormulaInjection(entry.Reference),
			validation.SanitizeForFormulaInjection(entry.Payer),
			validation.SanitizeForFormulaInjection(entry.Currency),
			strconv.FormatFloat(entry.Amount, 'f', 2, 64),
			strings.Join(sharers, ","),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write trip log row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
