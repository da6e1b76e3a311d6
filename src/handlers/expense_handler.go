// backend/src/handlers/expense_handler.go
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
	"github.com/username/easysplit/backend/src/security/validation"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

type ExpenseHandler struct {
	settlementService services.SettlementService
}

func NewExpenseHandler(settlementService services.SettlementService) *ExpenseHandler {
	return &ExpenseHandler{settlementService: settlementService}
}

type addExpenseRequest struct {
	Date      string   `json:"date"`
	Reference string   `json:"reference"`
	Payer     string   `json:"payer"`
	Currency  string   `json:"currency"`
	Amount    float64  `json:"amount"`
	SharedBy  []string `json:"shared_by"`
}

func (h *ExpenseHandler) HandleAddExpense(w http.ResponseWriter, r *http.Request) {
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

	var req addExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Payer = strings.TrimSpace(validation.StripUnprintable(req.Payer))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Reference = strings.TrimSpace(validation.StripUnprintable(req.Reference))

	if req.Payer == "" {
		utils.SendJSONError(w, "payer is required", http.StatusBadRequest)
		return
	}
	if !isCurrencyCode(req.Currency) {
		utils.SendJSONError(w, fmt.Sprintf("invalid currency '%s'", req.Currency), http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		utils.SendJSONError(w, "amount must be greater than zero", http.StatusBadRequest)
		return
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = utils.Today()
	} else if !utils.IsValidDate(date) {
		utils.SendJSONError(w, fmt.Sprintf("invalid date '%s', want %s", req.Date, utils.DefaultDateFormat), http.StatusBadRequest)
		return
	}

	sharers := make([]string, 0, len(req.SharedBy))
	for _, raw := range req.SharedBy {
		if name := strings.TrimSpace(validation.StripUnprintable(raw)); name != "" {
			sharers = append(sharers, name)
		}
	}

	// The payer and every sharer must already be registered on the trip.
	participants, err := model.ListParticipants(database.DB, tripID)
	if err != nil {
		logger.L.Error("Failed to list participants", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to validate expense", http.StatusInternalServerError)
		return
	}
	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		known[p.Name] = true
	}
	for _, name := range append([]string{req.Payer}, sharers...) {
		if !known[name] {
			utils.SendJSONError(w, fmt.Sprintf("%v: %s", services.ErrUnknownParticipant, name), http.StatusUnprocessableEntity)
			return
		}
	}

	expense := &model.Expense{
		TripID:    tripID,
		Date:      date,
		Reference: req.Reference,
		Payer:     req.Payer,
		Currency:  req.Currency,
		Amount:    req.Amount,
		SharedBy:  sharers,
	}
	if err := model.InsertExpense(database.DB, expense); err != nil {
		logger.L.Error("Failed to insert expense", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to save expense", http.StatusInternalServerError)
		return
	}

	h.settlementService.InvalidateTripCache(tripID)
	logger.L.Info("Expense added", "tripID", tripID, "expenseID", expense.ID, "amount", expense.Amount, "currency", expense.Currency)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(expense); err != nil {
		logger.L.Error("Error encoding JSON response for added expense", "tripID", tripID, "error", err)
	}
}

func (h *ExpenseHandler) HandleListExpenses(w http.ResponseWriter, r *http.Request) {
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

	expenses, err := model.ListExpenses(database.DB, tripID)
	if err != nil {
		logger.L.Error("Failed to list expenses", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to list expenses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expenses); err != nil {
		logger.L.Error("Error encoding JSON response for expenses", "tripID", tripID, "error", err)
	}
}

func (h *ExpenseHandler) HandleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	expenseID := r.PathValue("expenseID")

	if err := model.DeleteExpense(database.DB, tripID, expenseID); err != nil {
		if errors.Is(err, model.ErrExpenseNotFound) {
			utils.SendJSONError(w, "expense not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete expense", "tripID", tripID, "expenseID", expenseID, "error", err)
		utils.SendJSONError(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}

	h.settlementService.InvalidateTripCache(tripID)
	logger.L.Info("Expense deleted", "tripID", tripID, "expenseID", expenseID)
	w.WriteHeader(http.StatusNoContent)
}
