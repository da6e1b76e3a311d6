package model

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/easysplit/backend/src/models"
)

var (
	ErrTripNotFound         = errors.New("trip not found")
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrDuplicateParticipant = errors.New("participant already on trip")
)

type Trip struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expense is the persisted form of an expense entry. SharedBy is stored as
// a comma-joined name list in a single column.
type Expense struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Date      string    `json:"date"`
	Reference string    `json:"reference"`
	Payer     string    `json:"payer"`
	Currency  string    `json:"currency"`
	Amount    float64   `json:"amount"`
	SharedBy  []string  `json:"shared_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ToEntry converts the stored record into the engine's input form.
func (e Expense) ToEntry() models.ExpenseEntry {
	return models.ExpenseEntry{
		Date:      e.Date,
		Reference: e.Reference,
		Payer:     e.Payer,
		Currency:  e.Currency,
		Amount:    e.Amount,
		SharedBy:  e.SharedBy,
	}
}

// CreateTrip inserts a new trip and returns it with its generated id.
func CreateTrip(db *sql.DB, name string, baseCurrency string) (*Trip, error) {
	trip := &Trip{
		ID:           uuid.NewString(),
		Name:         name,
		BaseCurrency: strings.ToUpper(baseCurrency),
		CreatedAt:    time.Now().UTC(),
	}

	query := `
	INSERT INTO trips (id, name, base_currency, created_at)
	VALUES (?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(trip.ID, trip.Name, trip.BaseCurrency, trip.CreatedAt); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetTripByID retrieves a trip by its id.
func GetTripByID(db *sql.DB, tripID string) (*Trip, error) {
	query := `
	SELECT id, name, base_currency, created_at
	FROM trips
	WHERE id = ?`

	row := db.QueryRow(query, tripID)
	var trip Trip
	err := row.Scan(&trip.ID, &trip.Name, &trip.BaseCurrency, &trip.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// ListTrips returns all trips, newest first.
func ListTrips(db *sql.DB) ([]Trip, error) {
	query := `
	SELECT id, name, base_currency, created_at
	FROM trips
	ORDER BY created_at DESC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		var trip Trip
		if err := rows.Scan(&trip.ID, &trip.Name, &trip.BaseCurrency, &trip.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// DeleteTrip removes a trip together with its participants and expenses.
func DeleteTrip(db *sql.DB, tripID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM expenses WHERE trip_id = ?", tripID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM participants WHERE trip_id = ?", tripID); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTripNotFound
	}

	return tx.Commit()
}

// AddParticipant registers a name on a trip.
func AddParticipant(db *sql.DB, tripID string, name string) error {
	query := `
	INSERT INTO participants (trip_id, name, created_at)
	VALUES (?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(tripID, name, time.Now().UTC()); err != nil {
		if isUniqueConstraintErr(err) {
			return ErrDuplicateParticipant
		}
		return err
	}
	return nil
}

// InsertParticipantTx registers a name on a trip inside an existing
// transaction. Used by bulk import.
func InsertParticipantTx(tx *sql.Tx, tripID string, name string) error {
	_, err := tx.Exec(`
	INSERT INTO participants (trip_id, name, created_at)
	VALUES (?, ?, ?)`, tripID, name, time.Now().UTC())
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrDuplicateParticipant
		}
		return err
	}
	return nil
}

// ListParticipants returns the participants of a trip in registration order.
func ListParticipants(db *sql.DB, tripID string) ([]models.Participant, error) {
	query := `
	SELECT name
	FROM participants
	WHERE trip_id = ?
	ORDER BY id`

	rows, err := db.Query(query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		participants = append(participants, models.Participant{Name: name})
	}
	return participants, rows.Err()
}

// InsertExpense stores a new expense row. The id is generated when empty.
func InsertExpense(db *sql.DB, expense *Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO expenses (id, trip_id, entry_date, reference, payer, currency, amount, shared_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		expense.ID,
		expense.TripID,
		expense.Date,
		expense.Reference,
		expense.Payer,
		expense.Currency,
		expense.Amount,
		strings.Join(expense.SharedBy, ","),
		expense.CreatedAt,
	)
	return err
}

// ListExpenses returns the expenses of a trip in insertion order.
func ListExpenses(db *sql.DB, tripID string) ([]Expense, error) {
	query := `
	SELECT id, trip_id, entry_date, reference, payer, currency, amount, shared_by, created_at
	FROM expenses
	WHERE trip_id = ?
	ORDER BY created_at, id`

	rows, err := db.Query(query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		var expense Expense
		var sharedBy string
		err := rows.Scan(
			&expense.ID,
			&expense.TripID,
			&expense.Date,
			&expense.Reference,
			&expense.Payer,
			&expense.Currency,
			&expense.Amount,
			&sharedBy,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		expense.SharedBy = splitSharedBy(sharedBy)
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// DeleteExpense removes one expense from a trip.
func DeleteExpense(db *sql.DB, tripID string, expenseID string) error {
	query := `DELETE FROM expenses WHERE trip_id = ? AND id = ?`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(tripID, expenseID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func splitSharedBy(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
