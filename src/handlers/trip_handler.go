// backend/src/handlers/trip_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/security/validation"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

type TripHandler struct {
	settlementService services.SettlementService
}

func NewTripHandler(settlementService services.SettlementService) *TripHandler {
	return &TripHandler{settlementService: settlementService}
}

type createTripRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type tripDetailResponse struct {
	Trip         *model.Trip          `json:"trip"`
	Participants []models.Participant `json:"participants"`
	Expenses     []model.Expense      `json:"expenses"`
}

func (h *TripHandler) HandleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(validation.StripUnprintable(req.Name))
	if name == "" {
		utils.SendJSONError(w, "trip name is required", http.StatusBadRequest)
		return
	}

	base := strings.ToUpper(strings.TrimSpace(req.BaseCurrency))
	if base == "" {
		base = config.Cfg.BaseCurrency
	}
	if !isCurrencyCode(base) {
		utils.SendJSONError(w, fmt.Sprintf("invalid base currency '%s'", req.BaseCurrency), http.StatusBadRequest)
		return
	}

	trip, err := model.CreateTrip(database.DB, name, base)
	if err != nil {
		logger.L.Error("Failed to create trip", "name", name, "error", err)
		utils.SendJSONError(w, "failed to create trip", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Trip created", "tripID", trip.ID, "name", trip.Name, "baseCurrency", trip.BaseCurrency)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(trip); err != nil {
		logger.L.Error("Error encoding JSON response for created trip", "tripID", trip.ID, "error", err)
	}
}

func (h *TripHandler) HandleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := model.ListTrips(database.DB)
	if err != nil {
		logger.L.Error("Failed to list trips", "error", err)
		utils.SendJSONError(w, "failed to list trips", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trips); err != nil {
		logger.L.Error("Error encoding JSON response for trip list", "error", err)
	}
}

func (h *TripHandler) HandleGetTrip(w http.ResponseWriter, r *http.Request) {
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

	participants, err := model.ListParticipants(database.DB, tripID)
	if err != nil {
		logger.L.Error("Failed to list participants", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to load trip", http.StatusInternalServerError)
		return
	}
	expenses, err := model.ListExpenses(database.DB, tripID)
	if err != nil {
		logger.L.Error("Failed to list expenses", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := tripDetailResponse{Trip: trip, Participants: participants, Expenses: expenses}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding JSON response for trip detail", "tripID", tripID, "error", err)
	}
}

func (h *TripHandler) HandleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	if err := model.DeleteTrip(database.DB, tripID); err != nil {
		if errors.Is(err, model.ErrTripNotFound) {
			utils.SendJSONError(w, "trip not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete trip", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to delete trip", http.StatusInternalServerError)
		return
	}

	h.settlementService.InvalidateTripCache(tripID)
	logger.L.Info("Trip deleted", "tripID", tripID)
	w.WriteHeader(http.StatusNoContent)
}

// isCurrencyCode reports whether s is a three-letter uppercase code.
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
