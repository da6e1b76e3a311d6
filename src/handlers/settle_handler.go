// backend/src/handlers/settle_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/processors"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

// SettleHandler computes a settlement for a snapshot supplied in the request
// body, without touching stored trips.
type SettleHandler struct {
	settlementService services.SettlementService
}

func NewSettleHandler(settlementService services.SettlementService) *SettleHandler {
	return &SettleHandler{settlementService: settlementService}
}

type settleRequest struct {
	Participants []string              `json:"participants"`
	Entries      []models.ExpenseEntry `json:"entries"`
	BaseCurrency string                `json:"base_currency"`
	Rates        map[string]float64    `json:"rates"`
}

func (h *SettleHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	base := strings.ToUpper(strings.TrimSpace(req.BaseCurrency))
	if base != "" && !isCurrencyCode(base) {
		utils.SendJSONError(w, fmt.Sprintf("invalid base currency '%s'", req.BaseCurrency), http.StatusBadRequest)
		return
	}

	var rates *models.RateTable
	if req.Rates != nil {
		rates = &models.RateTable{Base: base, Factors: req.Rates}
	}

	snapshot := models.Snapshot{Participants: req.Participants, Entries: req.Entries}
	report, err := h.settlementService.Compute(r.Context(), snapshot, base, rates)
	if err != nil {
		var missingRate *processors.MissingRateError
		if errors.As(err, &missingRate) {
			utils.SendJSONError(w, missingRate.Error(), http.StatusUnprocessableEntity)
			return
		}
		logger.L.Error("Failed to compute ad-hoc settlement", "entries", len(req.Entries), "error", err)
		utils.SendJSONError(w, "failed to compute settlement", http.StatusInternalServerError)
		return
	}

	coerceReportForJSON(&report)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding JSON response for ad-hoc settlement", "error", err)
	}
}
