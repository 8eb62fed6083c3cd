package models

import "time"

// Expense is a shared cost logged against a trip.
type Expense struct {
	ID          int64     `json:"id"`
	TripID      int64     `json:"trip_id"`
	UserID      int64     `json:"user_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	PaidBy      string    `json:"paid_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
