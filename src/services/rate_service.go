// backend/src/services/rate_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/models"
)

// rateServiceImpl implements the RateService interface. Live quotes come
// from the configured exchange rate API; any failure degrades to the
// static fallback table so a settlement run never blocks on the network.
type rateServiceImpl struct {
	httpClient *http.Client
	apiURL     string
	base       string
	fallback   map[string]float64
	rateCache  *cache.Cache
	cacheTTL   time.Duration
}

// NewRateService creates a rate service from the loaded configuration.
func NewRateService() RateService {
	return &rateServiceImpl{
		httpClient: &http.Client{Timeout: config.Cfg.RatesTimeout},
		apiURL:     config.Cfg.RatesAPIURL,
		base:       config.Cfg.BaseCurrency,
		fallback:   config.Cfg.RatesFallback,
		rateCache:  cache.New(config.Cfg.RatesCacheTTL, 2*config.Cfg.RatesCacheTTL),
		cacheTTL:   config.Cfg.RatesCacheTTL,
	}
}

func (s *rateServiceImpl) GetRates(ctx context.Context, base string, symbols []string) (models.RateTable, string) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = s.base
	}

	wanted := normalizeSymbols(symbols, base)
	if len(wanted) == 0 {
		// Base currency only, nothing to look up.
		return models.NewRateTable(base), RateSourceStatic
	}

	cacheKey := base + "|" + strings.Join(wanted, ",")
	if cached, found := s.rateCache.Get(cacheKey); found {
		logger.L.Debug("Rate cache hit", "base", base, "symbols", wanted)
		return cached.(models.RateTable), RateSourceCache
	}

	table, err := s.fetchLatest(ctx, base, wanted)
	if err != nil {
		logger.L.Warn("Rate fetch failed, using fallback table",
			"error", err,
			"base", base,
			"symbols", wanted)
		return s.fallbackTable(base), RateSourceFallback
	}

	s.rateCache.Set(cacheKey, table, s.cacheTTL)
	logger.L.Info("Fetched live exchange rates", "base", base, "symbols", wanted)
	return table, RateSourceLive
}

// fetchLatest calls GET {api}/latest?base=...&symbols=... and converts the
// quotes into base-conversion factors. Quotes are units of each currency
// per one base unit, so the factor is the reciprocal. A missing or
// non-positive quote fails the whole fetch.
func (s *rateServiceImpl) fetchLatest(ctx context.Context, base string, symbols []string) (models.RateTable, error) {
	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		strings.TrimRight(s.apiURL, "/"),
		url.QueryEscape(base),
		url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.RateTable{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.RateTable{}, fmt.Errorf("failed to call exchange rate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.RateTable{}, fmt.Errorf("exchange rate API returned non-OK status %d", resp.StatusCode)
	}

	var payload models.RatesAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.RateTable{}, fmt.Errorf("failed to decode exchange rate response: %w", err)
	}

	table := models.NewRateTable(base)
	for _, code := range symbols {
		quote, ok := payload.Rates[code]
		if !ok || quote <= 0 {
			return models.RateTable{}, fmt.Errorf("exchange rate API returned no usable quote for %s", code)
		}
		table.Factors[code] = 1 / quote
	}
	return table, nil
}

// fallbackTable returns the static table from configuration. Its factors
// are denominated in the default base, so any other base gets an empty
// table and the missing rate policy decides from there.
func (s *rateServiceImpl) fallbackTable(base string) models.RateTable {
	table := models.NewRateTable(base)
	if base != s.base {
		return table
	}
	for code, factor := range s.fallback {
		table.Factors[code] = factor
	}
	return table
}

// normalizeSymbols uppercases, dedupes, and sorts the requested codes and
// drops the base currency, which never needs a lookup.
func normalizeSymbols(symbols []string, base string) []string {
	seen := make(map[string]struct{})
	for _, code := range symbols {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || code == base {
			continue
		}
		seen[code] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
