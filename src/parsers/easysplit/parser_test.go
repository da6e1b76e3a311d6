package easysplit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/easysplit/backend/src/models"
)

func TestParseCommaJoinedSharers(t *testing.T) {
	t.Parallel()

	input := "date,reference,payer,currency,amount,shared_by\n" +
		"2024-05-01,Dinner,Alice,GBP,120.00,\"Alice,Bob,Carol\"\n"

	result, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	entry := result.Entries[0]
	assert.Equal(t, "2024-05-01", entry.Date)
	assert.Equal(t, "Dinner", entry.Reference)
	assert.Equal(t, "Alice", entry.Payer)
	assert.Equal(t, "GBP", entry.Currency)
	assert.Equal(t, 120.0, entry.Amount)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, entry.SharedBy)
	assert.Zero(t, result.SkippedRows)
}

func TestParseSpreadSharers(t *testing.T) {
	t.Parallel()

	input := "date,reference,payer,currency,amount,shared_by\n" +
		"2024-05-02,Taxi,Bob,EUR,30,Alice,Bob,Carol\n"

	result, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, result.Entries[0].SharedBy)
}

func TestParseWithoutHeader(t *testing.T) {
	t.Parallel()

	input := "2024-05-01,Dinner,Alice,GBP,120.00,\"Alice,Bob\"\n"

	result, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, result.Entries, 1)
	assert.Zero(t, result.SkippedRows)
}

func TestParseNormalizesFields(t *testing.T) {
	t.Parallel()

	input := "2024-05-01, Dinner , Alice ,gbp,120.00,\" Bob , Carol \"\n"

	result, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	entry := result.Entries[0]
	assert.Equal(t, "Dinner", entry.Reference)
	assert.Equal(t, "Alice", entry.Payer)
	assert.Equal(t, "GBP", entry.Currency)
	assert.Equal(t, []string{"Bob", "Carol"}, entry.SharedBy)
}

func TestParseSkipsBadRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		row         string
		wantEntries int
		wantSkipped int
	}{
		{name: "too few columns", row: "2024-05-01,Dinner,Alice,GBP", wantEntries: 0, wantSkipped: 1},
		{name: "unparseable amount", row: "2024-05-01,Dinner,Alice,GBP,abc,Bob", wantEntries: 0, wantSkipped: 1},
		{name: "empty sharers kept", row: "2024-05-01,Dinner,Alice,GBP,10,", wantEntries: 1, wantSkipped: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := "date,reference,payer,currency,amount,shared_by\n" + tc.row + "\n"
			result, err := NewParser().Parse(strings.NewReader(input))
			require.NoError(t, err)

			assert.Len(t, result.Entries, tc.wantEntries)
			assert.Equal(t, tc.wantSkipped, result.SkippedRows)
		})
	}
}

func TestParseCollectsParticipantsFirstSeen(t *testing.T) {
	t.Parallel()

	input := "date,reference,payer,currency,amount,shared_by\n" +
		"2024-05-01,Dinner,Carol,GBP,60,\"Alice,Bob\"\n" +
		"2024-05-02,Taxi,Alice,GBP,15,\"Carol,Dave\"\n"

	result, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Carol", "Alice", "Bob", "Dave"}, result.Participants)
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Date: "2024-05-01", Reference: "Dinner", Payer: "Alice", Currency: "GBP", Amount: 120, SharedBy: []string{"Alice", "Bob", "Carol"}},
		{Date: "2024-05-02", Reference: "Museum", Payer: "Bob", Currency: "EUR", Amount: 45.5, SharedBy: []string{"Bob", "Carol"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Write(&buf, entries))

	result, err := NewParser().Parse(&buf)
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Zero(t, result.SkippedRows)
	assert.Equal(t, entries[0].SharedBy, result.Entries[0].SharedBy)
	assert.Equal(t, 45.5, result.Entries[1].Amount)
	assert.Equal(t, "EUR", result.Entries[1].Currency)
}

func TestWriteSanitizesFormulaCells(t *testing.T) {
	t.Parallel()

	entries := []models.ExpenseEntry{
		{Date: "2024-05-01", Reference: "=SUM(A1:A9)", Payer: "Alice", Currency: "GBP", Amount: 10, SharedBy: []string{"Bob"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Write(&buf, entries))

	assert.Contains(t, buf.String(), "'=SUM(A1:A9)")
	assert.NotContains(t, buf.String(), ",=SUM")
}
