package invites

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

var (
	ErrNotFound         = errors.New("invite not found")
	ErrNotRecipient     = errors.New("invite belongs to another user")
	ErrAlreadyAnswered  = errors.New("invite already answered")
	ErrTripOrUserAbsent = errors.New("trip or user not found")
	ErrInvalidAction    = errors.New("action must be accepted or declined")
)

// Repository handles trip_invites persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a trip invites repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Send creates a pending invite.
func (r *Repository) Send(ctx context.Context, inv *models.TripInvite) error {
	const q = `INSERT INTO trip_invites (trip_id, sender_id, receiver_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at`
	err := r.db.QueryRow(ctx, q, inv.TripID, inv.SenderID, inv.ReceiverID, models.InvitePending).
		Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrTripOrUserAbsent
	}
	if err != nil {
		return fmt.Errorf("send invite: %w", err)
	}
	return nil
}

// Pending lists invites awaiting the user's answer with readable trip and sender data.
func (r *Repository) Pending(ctx context.Context, userID int64) ([]models.PendingInvite, error) {
	const q = `SELECT ti.id, ti.trip_id, t.title, COALESCE(u.name, '')
		FROM trip_invites ti
		JOIN trips t ON ti.trip_id = t.id
		JOIN users u ON ti.sender_id = u.id
		WHERE ti.receiver_id = $1 AND ti.status = 'pending'
		ORDER BY ti.created_at`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	list := []models.PendingInvite{}
	for rows.Next() {
		var p models.PendingInvite
		if err := rows.Scan(&p.InviteID, &p.TripID, &p.Title, &p.SenderName); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Respond records the receiver's answer. Accepting adds them to the trip as a member in the
// same transaction.
func (r *Repository) Respond(ctx context.Context, inviteID, userID int64, action string) error {
	if action != models.InviteAccepted && action != models.InviteDeclined {
		return ErrInvalidAction
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var tripID, receiverID int64
		var status string
		err := tx.QueryRow(ctx, `SELECT trip_id, receiver_id, status FROM trip_invites WHERE id = $1 FOR UPDATE`, inviteID).
			Scan(&tripID, &receiverID, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load invite: %w", err)
		}
		if receiverID != userID {
			return ErrNotRecipient
		}
		if status != models.InvitePending {
			return ErrAlreadyAnswered
		}

		if _, err := tx.Exec(ctx, `UPDATE trip_invites SET status = $1 WHERE id = $2`, action, inviteID); err != nil {
			return fmt.Errorf("update invite: %w", err)
		}
		if action == models.InviteDeclined {
			return nil
		}
		const join = `INSERT INTO trip_participants (trip_id, user_id, role) VALUES ($1, $2, $3)
			ON CONFLICT (trip_id, user_id) DO NOTHING`
		if _, err := tx.Exec(ctx, join, tripID, userID, models.RoleMember); err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		return nil
	})
}
