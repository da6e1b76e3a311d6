package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/processors"
)

// stubRateService returns a fixed table and records what was asked for.
type stubRateService struct {
	table      models.RateTable
	source     string
	lastBase   string
	lastAsked  []string
	timesAsked int
}

func (s *stubRateService) GetRates(ctx context.Context, base string, symbols []string) (models.RateTable, string) {
	s.timesAsked++
	s.lastBase = base
	s.lastAsked = symbols
	return s.table, s.source
}

func newTestSettlementService(rates RateService) SettlementService {
	engine := processors.NewSettlementEngine(
		processors.NewExpenseAggregator(),
		processors.NewCurrencyNormalizer(processors.MissingRateFail),
		processors.NewNettingReducer(),
	)
	return NewSettlementService(engine, rates, cache.New(time.Minute, 2*time.Minute))
}

func TestComputeWithCallerRates(t *testing.T) {
	svc := newTestSettlementService(&stubRateService{})

	snapshot := models.Snapshot{
		Entries: []models.ExpenseEntry{
			{Payer: "alice", Currency: "EUR", Amount: 100, SharedBy: []string{"alice", "bob"}},
		},
	}
	rates := &models.RateTable{Base: "GBP", Factors: map[string]float64{"EUR": 0.5}}

	report, err := svc.Compute(context.Background(), snapshot, "", rates)
	require.NoError(t, err)

	assert.Equal(t, RateSourceRequest, report.RateSource)
	assert.Equal(t, "GBP", report.BaseCurrency)
	require.Len(t, report.Transfers, 1)
	assert.Equal(t, "bob", report.Transfers[0].From)
	assert.Equal(t, "alice", report.Transfers[0].To)
	assert.InDelta(t, 25.0, report.Transfers[0].Amount, 1e-9) // 50 EUR share at 0.5
}

func TestComputeResolvesRatesWhenNil(t *testing.T) {
	stub := &stubRateService{
		table:  models.RateTable{Base: "GBP", Factors: map[string]float64{"GBP": 1.0, "EUR": 0.5}},
		source: RateSourceLive,
	}
	svc := newTestSettlementService(stub)

	snapshot := models.Snapshot{
		Entries: []models.ExpenseEntry{
			{Payer: "alice", Currency: "EUR", Amount: 10, SharedBy: []string{"bob"}},
			{Payer: "bob", Currency: "GBP", Amount: 4, SharedBy: []string{"alice"}},
		},
	}

	report, err := svc.Compute(context.Background(), snapshot, "", nil)
	require.NoError(t, err)

	assert.Equal(t, RateSourceLive, report.RateSource)
	assert.Equal(t, 1, stub.timesAsked)
	assert.Equal(t, "GBP", stub.lastBase)
	assert.ElementsMatch(t, []string{"EUR", "GBP"}, stub.lastAsked)
	require.Len(t, report.Transfers, 1)
	assert.InDelta(t, 1.0, report.Transfers[0].Amount, 1e-9) // 5 GBP owed minus 4 GBP owed back
}

func TestComputeHonorsRequestedBase(t *testing.T) {
	stub := &stubRateService{
		table:  models.RateTable{Base: "USD", Factors: map[string]float64{"USD": 1.0, "EUR": 1.1}},
		source: RateSourceLive,
	}
	svc := newTestSettlementService(stub)

	snapshot := models.Snapshot{
		Entries: []models.ExpenseEntry{
			{Payer: "alice", Currency: "EUR", Amount: 10, SharedBy: []string{"bob"}},
		},
	}

	report, err := svc.Compute(context.Background(), snapshot, "USD", nil)
	require.NoError(t, err)

	assert.Equal(t, "USD", stub.lastBase)
	assert.Equal(t, "USD", report.BaseCurrency)
	require.Len(t, report.Transfers, 1)
	assert.InDelta(t, 11.0, report.Transfers[0].Amount, 1e-9)
}

func TestComputeMissingRateFails(t *testing.T) {
	stub := &stubRateService{
		table:  models.RateTable{Base: "GBP", Factors: map[string]float64{"GBP": 1.0}},
		source: RateSourceFallback,
	}
	svc := newTestSettlementService(stub)

	snapshot := models.Snapshot{
		Entries: []models.ExpenseEntry{
			{Payer: "alice", Currency: "JPY", Amount: 1000, SharedBy: []string{"bob"}},
		},
	}

	_, err := svc.Compute(context.Background(), snapshot, "", nil)
	require.Error(t, err)

	var missing *processors.MissingRateError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"JPY"}, missing.Codes)
}

func seedTrip(t *testing.T, names []string) *model.Trip {
	t.Helper()
	trip, err := model.CreateTrip(database.DB, "Test Trip "+t.Name(), "GBP")
	require.NoError(t, err)
	for _, name := range names {
		require.NoError(t, model.AddParticipant(database.DB, trip.ID, name))
	}
	return trip
}

func TestSettleTripComputesAndCaches(t *testing.T) {
	stub := &stubRateService{
		table:  models.RateTable{Base: "GBP", Factors: map[string]float64{"GBP": 1.0}},
		source: RateSourceStatic,
	}
	svc := newTestSettlementService(stub)

	trip := seedTrip(t, []string{"alice", "bob"})
	require.NoError(t, model.InsertExpense(database.DB, &model.Expense{
		TripID: trip.ID, Date: "2024-05-01", Reference: "Dinner",
		Payer: "alice", Currency: "GBP", Amount: 30, SharedBy: []string{"alice", "bob"},
	}))

	report, err := svc.SettleTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "GBP", stub.lastBase)
	require.Len(t, report.Transfers, 1)
	assert.InDelta(t, 15.0, report.Transfers[0].Amount, 1e-9)

	// A mutation without invalidation is not picked up, the report is cached.
	require.NoError(t, model.InsertExpense(database.DB, &model.Expense{
		TripID: trip.ID, Date: "2024-05-02", Reference: "Taxi",
		Payer: "bob", Currency: "GBP", Amount: 10, SharedBy: []string{"alice"},
	}))
	cached, err := svc.SettleTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, report.GeneratedAt, cached.GeneratedAt)
	assert.InDelta(t, 15.0, cached.Transfers[0].Amount, 1e-9)

	svc.InvalidateTripCache(trip.ID)
	fresh, err := svc.SettleTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Transfers, 1)
	assert.InDelta(t, 5.0, fresh.Transfers[0].Amount, 1e-9) // 15 owed minus 10 owed back
}

func TestSettleTripUnknownTrip(t *testing.T) {
	svc := newTestSettlementService(&stubRateService{})

	_, err := svc.SettleTrip(context.Background(), "no-such-trip")
	require.ErrorIs(t, err, model.ErrTripNotFound)
}

func TestImportExpensesRegistersAndInserts(t *testing.T) {
	svc := newTestSettlementService(&stubRateService{})
	trip := seedTrip(t, []string{"Alice"})

	csvFile := "date,reference,payer,currency,amount,shared_by\n" +
		"2024-05-01,Dinner,Alice,GBP,30,\"Alice,Bob\"\n" +
		"2024-05-02,Taxi,Bob,GBP,broken,Alice\n" +
		"2024-05-03,Museum,Bob,EUR,20,\"Alice,Bob\"\n"

	result, err := svc.ImportExpenses(context.Background(), trip.ID, strings.NewReader(csvFile))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, []string{"Bob"}, result.NewParticipants)

	expenses, err := model.ListExpenses(database.DB, trip.ID)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	participants, err := model.ListParticipants(database.DB, trip.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)
}

func TestImportExpensesUnknownTrip(t *testing.T) {
	svc := newTestSettlementService(&stubRateService{})

	_, err := svc.ImportExpenses(context.Background(), "no-such-trip", strings.NewReader("a,b\n"))
	require.ErrorIs(t, err, model.ErrTripNotFound)
}

func TestExportExpensesRoundTrip(t *testing.T) {
	svc := newTestSettlementService(&stubRateService{})
	trip := seedTrip(t, []string{"alice", "bob"})

	require.NoError(t, model.InsertExpense(database.DB, &model.Expense{
		TripID: trip.ID, Date: "2024-05-01", Reference: "Dinner",
		Payer: "alice", Currency: "GBP", Amount: 30, SharedBy: []string{"alice", "bob"},
	}))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportExpenses(context.Background(), trip.ID, &buf))

	out := buf.String()
	assert.Contains(t, out, "date,reference,payer,currency,amount,shared_by")
	assert.Contains(t, out, "2024-05-01,Dinner,alice,GBP,30.00,\"alice,bob\"")
}
