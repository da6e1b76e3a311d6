package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/easysplit/backend/src/models"
)

func newTestRateService(apiURL string) *rateServiceImpl {
	return &rateServiceImpl{
		httpClient: &http.Client{Timeout: 2 * time.Second},
		apiURL:     apiURL,
		base:       "GBP",
		fallback:   map[string]float64{"GBP": 1.0, "EUR": 0.86, "CNY": 0.11},
		rateCache:  cache.New(time.Minute, 2*time.Minute),
		cacheTTL:   time.Minute,
	}
}

func TestGetRatesLiveQuotesBecomeFactors(t *testing.T) {
	var gotBase, gotSymbols string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBase = r.URL.Query().Get("base")
		gotSymbols = r.URL.Query().Get("symbols")
		json.NewEncoder(w).Encode(models.RatesAPIResponse{
			Base:  "GBP",
			Rates: map[string]float64{"CNY": 9.0, "EUR": 1.25},
		})
	}))
	defer server.Close()

	svc := newTestRateService(server.URL)
	table, source := svc.GetRates(context.Background(), "", []string{"EUR", "CNY"})

	assert.Equal(t, RateSourceLive, source)
	assert.Equal(t, "GBP", gotBase)
	assert.Equal(t, "CNY,EUR", gotSymbols)
	assert.Equal(t, "GBP", table.Base)

	eur, ok := table.Factor("EUR")
	require.True(t, ok)
	assert.InDelta(t, 0.8, eur, 1e-12) // 1 / 1.25

	cny, ok := table.Factor("CNY")
	require.True(t, ok)
	assert.InDelta(t, 1.0/9.0, cny, 1e-12)
}

func TestGetRatesSecondCallHitsCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(models.RatesAPIResponse{
			Base:  "GBP",
			Rates: map[string]float64{"EUR": 1.25},
		})
	}))
	defer server.Close()

	svc := newTestRateService(server.URL)

	_, source := svc.GetRates(context.Background(), "", []string{"EUR"})
	assert.Equal(t, RateSourceLive, source)

	table, source := svc.GetRates(context.Background(), "", []string{"eur", "EUR"})
	assert.Equal(t, RateSourceCache, source)
	assert.Equal(t, 1, calls)

	eur, ok := table.Factor("EUR")
	require.True(t, ok)
	assert.InDelta(t, 0.8, eur, 1e-12)
}

func TestGetRatesFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestRateService(server.URL)
	table, source := svc.GetRates(context.Background(), "", []string{"EUR"})

	assert.Equal(t, RateSourceFallback, source)
	eur, ok := table.Factor("EUR")
	require.True(t, ok)
	assert.Equal(t, 0.86, eur)
}

func TestGetRatesFallsBackOnMissingQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RatesAPIResponse{
			Base:  "GBP",
			Rates: map[string]float64{"EUR": 1.25}, // CNY requested but absent
		})
	}))
	defer server.Close()

	svc := newTestRateService(server.URL)
	_, source := svc.GetRates(context.Background(), "", []string{"EUR", "CNY"})

	assert.Equal(t, RateSourceFallback, source)
}

func TestGetRatesFallsBackOnUnreachableAPI(t *testing.T) {
	svc := newTestRateService("http://127.0.0.1:1")
	svc.httpClient.Timeout = 100 * time.Millisecond

	table, source := svc.GetRates(context.Background(), "", []string{"EUR"})

	assert.Equal(t, RateSourceFallback, source)
	assert.Equal(t, "GBP", table.Base)
}

func TestGetRatesHonorsRequestedBase(t *testing.T) {
	var gotBase string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBase = r.URL.Query().Get("base")
		json.NewEncoder(w).Encode(models.RatesAPIResponse{
			Base:  "EUR",
			Rates: map[string]float64{"GBP": 0.8},
		})
	}))
	defer server.Close()

	svc := newTestRateService(server.URL)
	table, source := svc.GetRates(context.Background(), "eur", []string{"GBP"})

	assert.Equal(t, RateSourceLive, source)
	assert.Equal(t, "EUR", gotBase)
	assert.Equal(t, "EUR", table.Base)
	gbp, ok := table.Factor("GBP")
	require.True(t, ok)
	assert.InDelta(t, 1.25, gbp, 1e-12)
}

func TestGetRatesNoFallbackForOtherBase(t *testing.T) {
	svc := newTestRateService("http://127.0.0.1:1")
	svc.httpClient.Timeout = 100 * time.Millisecond

	table, source := svc.GetRates(context.Background(), "EUR", []string{"GBP"})

	assert.Equal(t, RateSourceFallback, source)
	assert.Equal(t, "EUR", table.Base)
	_, ok := table.Factor("GBP")
	assert.False(t, ok, "static factors are denominated in the default base only")
}

func TestGetRatesBaseOnlyIsStatic(t *testing.T) {
	svc := newTestRateService("http://127.0.0.1:1")

	table, source := svc.GetRates(context.Background(), "", []string{"GBP", "gbp", " ", ""})

	assert.Equal(t, RateSourceStatic, source)
	assert.Equal(t, "GBP", table.Base)
	factor, ok := table.Factor("GBP")
	require.True(t, ok)
	assert.Equal(t, 1.0, factor)
}
