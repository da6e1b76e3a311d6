// backend/src/services/settlement_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/parsers"
	"github.com/username/easysplit/backend/src/parsers/easysplit"
	"github.com/username/easysplit/backend/src/processors"
)

const (
	ckTripReport = "res_settlement_trip_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type settlementServiceImpl struct {
	engine      processors.SettlementEngine
	rateService RateService
	reportCache *cache.Cache
	reportTTL   time.Duration
	base        string
}

func NewSettlementService(
	engine processors.SettlementEngine,
	rateService RateService,
	reportCache *cache.Cache,
) SettlementService {
	ttl := DefaultCacheExpiration
	base := "GBP"
	if config.Cfg != nil {
		if config.Cfg.ReportCacheTTL > 0 {
			ttl = config.Cfg.ReportCacheTTL
		}
		base = config.Cfg.BaseCurrency
	}
	return &settlementServiceImpl{
		engine:      engine,
		rateService: rateService,
		reportCache: reportCache,
		reportTTL:   ttl,
		base:        base,
	}
}

// Compute settles one snapshot. When the caller supplies no rate table the
// currencies present in the entries are resolved through the rate service,
// against the requested base currency (or the configured default).
func (s *settlementServiceImpl) Compute(ctx context.Context, snapshot models.Snapshot, base string, rates *models.RateTable) (models.SettlementReport, error) {
	if base == "" {
		base = s.base
	}
	var (
		table  models.RateTable
		source string
	)
	if rates != nil {
		table, source = *rates, RateSourceRequest
		if table.Base == "" {
			table.Base = base
		}
		if table.Factors == nil {
			table.Factors = map[string]float64{table.Base: 1.0}
		}
	} else {
		table, source = s.rateService.GetRates(ctx, base, collectCurrencies(snapshot.Entries))
	}

	report, err := s.engine.Settle(snapshot, table)
	if err != nil {
		return models.SettlementReport{}, err
	}
	report.RateSource = source
	return report, nil
}

func (s *settlementServiceImpl) SettleTrip(ctx context.Context, tripID string) (models.SettlementReport, error) {
	cacheKey := fmt.Sprintf(ckTripReport, tripID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for trip settlement", "tripID", tripID)
		return cached.(models.SettlementReport), nil
	}

	snapshot, trip, err := s.loadTripSnapshot(tripID)
	if err != nil {
		return models.SettlementReport{}, err
	}

	// Rates are resolved against the trip's own base currency.
	table, source := s.rateService.GetRates(ctx, trip.BaseCurrency, collectCurrencies(snapshot.Entries))
	report, err := s.engine.Settle(snapshot, table)
	if err != nil {
		return models.SettlementReport{}, err
	}
	report.RateSource = source

	s.reportCache.Set(cacheKey, report, s.reportTTL)
	return report, nil
}

func (s *settlementServiceImpl) ImportExpenses(ctx context.Context, tripID string, fileReader io.Reader) (*ImportResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ImportExpenses START", "tripID", tripID)

	if _, err := model.GetTripByID(database.DB, tripID); err != nil {
		return nil, err
	}

	parser, err := parsers.GetParser("easysplit")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	result, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	existing, err := model.ListParticipants(database.DB, tripID)
	if err != nil {
		return nil, fmt.Errorf("loading participants for trip %s: %w", tripID, err)
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.Name] = true
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Names seen in the file but not yet registered join the trip.
	var newNames []string
	for _, name := range result.Participants {
		if known[name] {
			continue
		}
		if err := model.InsertParticipantTx(dbTx, tripID, name); err != nil {
			return nil, fmt.Errorf("error registering participant %q: %w", name, err)
		}
		known[name] = true
		newNames = append(newNames, name)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO expenses (id, trip_id, entry_date, reference, payer, currency, amount, shared_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, entry := range result.Entries {
		_, err := stmt.Exec(uuid.NewString(), tripID, entry.Date, entry.Reference, entry.Payer, entry.Currency, entry.Amount, strings.Join(entry.SharedBy, ","), time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("error inserting expense (%s): %w", entry.Reference, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing expenses: %w", err)
	}

	s.InvalidateTripCache(tripID)

	logger.L.Info("ImportExpenses END",
		"tripID", tripID,
		"inserted", inserted,
		"skippedRows", result.SkippedRows,
		"newParticipants", len(newNames),
		"duration", time.Since(overallStartTime))
	return &ImportResult{
		Inserted:        inserted,
		SkippedRows:     result.SkippedRows,
		NewParticipants: newNames,
	}, nil
}

func (s *settlementServiceImpl) ExportExpenses(ctx context.Context, tripID string, w io.Writer) error {
	if _, err := model.GetTripByID(database.DB, tripID); err != nil {
		return err
	}
	expenses, err := model.ListExpenses(database.DB, tripID)
	if err != nil {
		return fmt.Errorf("loading expenses for trip %s: %w", tripID, err)
	}
	entries := make([]models.ExpenseEntry, 0, len(expenses))
	for _, e := range expenses {
		entries = append(entries, e.ToEntry())
	}
	return easysplit.NewWriter().Write(w, entries)
}

// InvalidateTripCache clears the cached settlement for a trip, forcing a
// recomputation on the next request.
func (s *settlementServiceImpl) InvalidateTripCache(tripID string) {
	s.reportCache.Delete(fmt.Sprintf(ckTripReport, tripID))
	logger.L.Debug("Invalidated settlement cache for trip", "tripID", tripID)
}

func (s *settlementServiceImpl) loadTripSnapshot(tripID string) (models.Snapshot, *model.Trip, error) {
	trip, err := model.GetTripByID(database.DB, tripID)
	if err != nil {
		return models.Snapshot{}, nil, err
	}
	participants, err := model.ListParticipants(database.DB, tripID)
	if err != nil {
		return models.Snapshot{}, nil, fmt.Errorf("loading participants for trip %s: %w", tripID, err)
	}
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	expenses, err := model.ListExpenses(database.DB, tripID)
	if err != nil {
		return models.Snapshot{}, nil, fmt.Errorf("loading expenses for trip %s: %w", tripID, err)
	}
	entries := make([]models.ExpenseEntry, 0, len(expenses))
	for _, e := range expenses {
		entries = append(entries, e.ToEntry())
	}
	return models.Snapshot{Participants: names, Entries: entries}, trip, nil
}

func collectCurrencies(entries []models.ExpenseEntry) []string {
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Currency)
	}
	return codes
}
