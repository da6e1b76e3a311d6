package services

import (
	"context"
	"io"

	"github.com/username/easysplit/backend/src/models"
)

// Rate table provenance tags attached to settlement reports.
const (
	RateSourceLive     = "live"     // fetched from the exchange rate API
	RateSourceCache    = "cache"    // previous live fetch within its TTL
	RateSourceFallback = "fallback" // static table, API unreachable
	RateSourceStatic   = "static"   // no lookup needed, base currency only
	RateSourceRequest  = "request"  // caller supplied the table
)

// RateService resolves base-currency conversion factors for a set of
// currency codes. An empty base means the configured default. The returned
// tag is one of the RateSource constants; a usable table always comes back,
// provider failures degrade to the fallback table (or an empty one when the
// requested base has no static fallback).
type RateService interface {
	GetRates(ctx context.Context, base string, symbols []string) (models.RateTable, string)
}

// ImportResult summarises one CSV import run.
type ImportResult struct {
	Inserted        int      `json:"inserted"`
	SkippedRows     int      `json:"skipped_rows"`
	NewParticipants []string `json:"new_participants"`
}

// SettlementService computes settlement reports, stateless or against a
// stored trip, and owns the trip report cache and the CSV round-trip.
type SettlementService interface {
	// Compute settles an in-request snapshot. An empty base means the
	// configured default; a nil rates argument means "resolve rates for the
	// currencies present via the rate service".
	Compute(ctx context.Context, snapshot models.Snapshot, base string, rates *models.RateTable) (models.SettlementReport, error)
	// SettleTrip loads the trip state and settles it, caching the report
	// until the next mutation.
	SettleTrip(ctx context.Context, tripID string) (models.SettlementReport, error)
	ImportExpenses(ctx context.Context, tripID string, fileReader io.Reader) (*ImportResult, error)
	ExportExpenses(ctx context.Context, tripID string, w io.Writer) error
	// InvalidateTripCache drops the cached report after handlers mutate
	// trip state directly.
	InvalidateTripCache(tripID string)
}

// EmailService delivers a rendered settlement report to trip members.
type EmailService interface {
	SendSettlementReport(toEmails []string, tripName string, report models.SettlementReport) error
}
