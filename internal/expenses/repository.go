package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

var (
	ErrNotFound         = errors.New("expense not found")
	ErrTripOrUserAbsent = errors.New("trip or user not found")
)

// Repository handles trip_expenses persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an expenses repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts an expense and sets its id.
func (r *Repository) Add(ctx context.Context, e *models.Expense) error {
	const q = `INSERT INTO trip_expenses (trip_id, user_id, description, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, e.TripID, e.UserID, e.Description, e.Amount).Scan(&e.ID, &e.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrTripOrUserAbsent
	}
	if err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	return nil
}

// ListByTrip returns the trip's expenses with the payer's name, oldest first.
func (r *Repository) ListByTrip(ctx context.Context, tripID int64) ([]models.Expense, error) {
	const q = `SELECT e.id, e.trip_id, e.user_id, e.description, e.amount, COALESCE(u.name, ''), e.created_at
		FROM trip_expenses e
		JOIN users u ON e.user_id = u.id
		WHERE e.trip_id = $1
		ORDER BY e.created_at, e.id`
	rows, err := r.db.Query(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	list := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.UserID, &e.Description, &e.Amount, &e.PaidBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update changes an expense's description and amount.
func (r *Repository) Update(ctx context.Context, id int64, description string, amount float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE trip_expenses SET description = $1, amount = $2 WHERE id = $3`, description, amount, id)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trip_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
