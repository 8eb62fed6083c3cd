package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Repository handles notifications persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a notifications repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// NotifyTrip writes one notification per current participant of the trip and returns how many were written.
func (r *Repository) NotifyTrip(ctx context.Context, tripID int64, kind, message string) (int64, error) {
	const q = `INSERT INTO notifications (user_id, trip_id, kind, message)
		SELECT user_id, trip_id, $2, $3 FROM trip_participants WHERE trip_id = $1`
	tag, err := r.db.Exec(ctx, q, tripID, kind, message)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns a user's notifications, newest first, capped at limit.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	const q = `SELECT id, user_id, trip_id, kind, message, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TripID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead flags a notification as read.
func (r *Repository) MarkRead(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
