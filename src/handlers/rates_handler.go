// backend/src/handlers/rates_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/services"
)

type RatesHandler struct {
	rateService services.RateService
}

func NewRatesHandler(rateService services.RateService) *RatesHandler {
	return &RatesHandler{rateService: rateService}
}

type ratesResponse struct {
	Base    string             `json:"base"`
	Factors map[string]float64 `json:"factors"`
	Source  string             `json:"source"`
}

// HandleGetRates exposes the rate table the engine would use right now.
// Without a symbols parameter it reports the configured fallback set.
func (h *RatesHandler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		symbols = strings.Split(raw, ",")
	} else {
		for code := range config.Cfg.RatesFallback {
			symbols = append(symbols, code)
		}
	}
	base := r.URL.Query().Get("base")

	table, source := h.rateService.GetRates(r.Context(), base, symbols)

	w.Header().Set("Content-Type", "application/json")
	response := ratesResponse{Base: table.Base, Factors: table.Factors, Source: source}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding JSON response for rates", "error", err)
	}
}
