// backend/src/handlers/settlement_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/processors"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

type SettlementHandler struct {
	settlementService services.SettlementService
	emailService      services.EmailService
}

func NewSettlementHandler(settlementService services.SettlementService, emailService services.EmailService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		emailService:      emailService,
	}
}

func (h *SettlementHandler) HandleGetSettlement(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	logger.L.Debug("Handling settlement request", "tripID", tripID, "format", r.URL.Query().Get("format"))

	report, err := h.settlementService.SettleTrip(r.Context(), tripID)
	if err != nil {
		h.sendSettlementError(w, tripID, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(processors.RenderReportText(report))); err != nil {
			logger.L.Error("Error writing text settlement report", "tripID", tripID, "error", err)
		}
		return
	}

	coerceReportForJSON(&report)

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for settlement report", "tripID", tripID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Info("ETag match for settlement report", "tripID", tripID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding JSON response for settlement report", "tripID", tripID, "error", err)
	}
}

type emailSettlementRequest struct {
	Recipients []string `json:"recipients"`
}

func (h *SettlementHandler) HandleEmailSettlement(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	trip, err := model.GetTripByID(database.DB, tripID)
	if err != nil {
		if errors.Is(err, model.ErrTripNotFound) {
			utils.SendJSONError(w, "trip not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load trip", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	var req emailSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	recipients := make([]string, 0, len(req.Recipients))
	for _, raw := range req.Recipients {
		addr := strings.TrimSpace(raw)
		if addr == "" {
			continue
		}
		if !strings.Contains(addr, "@") {
			utils.SendJSONError(w, fmt.Sprintf("invalid recipient address '%s'", addr), http.StatusBadRequest)
			return
		}
		recipients = append(recipients, addr)
	}
	if len(recipients) == 0 {
		utils.SendJSONError(w, "at least one recipient is required", http.StatusBadRequest)
		return
	}

	report, err := h.settlementService.SettleTrip(r.Context(), tripID)
	if err != nil {
		h.sendSettlementError(w, tripID, err)
		return
	}

	if err := h.emailService.SendSettlementReport(recipients, trip.Name, report); err != nil {
		logger.L.Error("Failed to send settlement report email", "tripID", tripID, "recipients", len(recipients), "error", err)
		utils.SendJSONError(w, "failed to send settlement report", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Settlement report emailed", "tripID", tripID, "recipients", len(recipients))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"message": "settlement report sent", "recipients": len(recipients)}); err != nil {
		logger.L.Error("Error encoding JSON response for settlement email", "tripID", tripID, "error", err)
	}
}

func (h *SettlementHandler) sendSettlementError(w http.ResponseWriter, tripID string, err error) {
	var missingRate *processors.MissingRateError
	switch {
	case errors.Is(err, model.ErrTripNotFound):
		utils.SendJSONError(w, "trip not found", http.StatusNotFound)
	case errors.As(err, &missingRate):
		utils.SendJSONError(w, missingRate.Error(), http.StatusUnprocessableEntity)
	default:
		logger.L.Error("Failed to compute settlement", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to compute settlement", http.StatusInternalServerError)
	}
}

// coerceReportForJSON replaces nil collections so the response never carries
// JSON null where a list or map belongs.
func coerceReportForJSON(report *models.SettlementReport) {
	if report.Participants == nil {
		report.Participants = []string{}
	}
	if report.Matrix == nil {
		report.Matrix = [][]float64{}
	}
	if report.Transfers == nil {
		report.Transfers = []models.NetTransfer{}
	}
	if report.Rates.Factors == nil {
		report.Rates.Factors = map[string]float64{}
	}
}
