// backend/src/handlers/participant_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/security/validation"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

type ParticipantHandler struct {
	settlementService services.SettlementService
}

func NewParticipantHandler(settlementService services.SettlementService) *ParticipantHandler {
	return &ParticipantHandler{settlementService: settlementService}
}

type addParticipantRequest struct {
	Name string `json:"name"`
}

func (h *ParticipantHandler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	if _, err := model.GetTripByID(database.DB, tripID); err != nil {
		if errors.Is(err, model.ErrTripNotFound) {
			utils.SendJSONError(w, "trip not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load trip", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	var req addParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(validation.StripUnprintable(req.Name))
	if name == "" {
		utils.SendJSONError(w, "participant name is required", http.StatusBadRequest)
		return
	}
	if strings.Contains(name, ",") {
		utils.SendJSONError(w, "participant name must not contain a comma", http.StatusBadRequest)
		return
	}

	if err := model.AddParticipant(database.DB, tripID, name); err != nil {
		if errors.Is(err, model.ErrDuplicateParticipant) {
			utils.SendJSONError(w, "participant already on trip", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to add participant", "tripID", tripID, "name", name, "error", err)
		utils.SendJSONError(w, "failed to add participant", http.StatusInternalServerError)
		return
	}

	h.settlementService.InvalidateTripCache(tripID)
	logger.L.Info("Participant added", "tripID", tripID, "name", name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(models.Participant{Name: name}); err != nil {
		logger.L.Error("Error encoding JSON response for added participant", "tripID", tripID, "error", err)
	}
}

func (h *ParticipantHandler) HandleListParticipants(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	if _, err := model.GetTripByID(database.DB, tripID); err != nil {
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
		utils.SendJSONError(w, "failed to list participants", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(participants); err != nil {
		logger.L.Error("Error encoding JSON response for participants", "tripID", tripID, "error", err)
	}
}
