package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

var (
	ErrExists       = errors.New("friend request already exists or already friends")
	ErrNoRequest    = errors.New("no pending friend request")
	ErrSelf         = errors.New("cannot befriend yourself")
	ErrUserNotFound = errors.New("user not found")
)

// Repository handles friendships persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a friends repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Request creates a pending friendship unless one already exists in either direction.
func (r *Repository) Request(ctx context.Context, senderID, receiverID int64) error {
	if senderID == receiverID {
		return ErrSelf
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		const check = `SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		)`
		if err := tx.QueryRow(ctx, check, senderID, receiverID).Scan(&exists); err != nil {
			return fmt.Errorf("check friendship: %w", err)
		}
		if exists {
			return ErrExists
		}
		_, err := tx.Exec(ctx, `INSERT INTO friendships (sender_id, receiver_id, status) VALUES ($1, $2, $3)`,
			senderID, receiverID, models.FriendshipPending)
		switch {
		case database.IsUniqueViolation(err):
			return ErrExists
		case database.IsForeignKeyViolation(err):
			return ErrUserNotFound
		case err != nil:
			return fmt.Errorf("insert friendship: %w", err)
		}
		return nil
	})
}

// Accept marks senderID's pending request to receiverID as accepted.
func (r *Repository) Accept(ctx context.Context, senderID, receiverID int64) error {
	const q = `UPDATE friendships SET status = $1 WHERE sender_id = $2 AND receiver_id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, q, models.FriendshipAccepted, senderID, receiverID, models.FriendshipPending)
	if err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRequest
	}
	return nil
}

// List returns the user's accepted friends.
func (r *Repository) List(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	const q = `SELECT u.id, COALESCE(u.name, ''), u.email, u.profile_pic FROM users u
		JOIN friendships f ON (u.id = f.sender_id OR u.id = f.receiver_id)
		WHERE f.status = 'accepted'
		  AND (f.sender_id = $1 OR f.receiver_id = $1)
		  AND u.id <> $1
		ORDER BY u.name, u.id`
	return r.summaries(ctx, q, userID)
}

// Pending returns users with a pending request to the user identified by Firebase UID.
func (r *Repository) Pending(ctx context.Context, firebaseUID string) ([]models.UserSummary, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE firebase_uid = $1`, firebaseUID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve firebase uid: %w", err)
	}
	const q = `SELECT u.id, COALESCE(u.name, ''), u.email, u.profile_pic FROM users u
		JOIN friendships f ON u.id = f.sender_id
		WHERE f.receiver_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at`
	return r.summaries(ctx, q, userID)
}

// Remove deletes the friendship between two users in either direction.
func (r *Repository) Remove(ctx context.Context, userID, otherID int64) error {
	const q = `DELETE FROM friendships
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`
	if _, err := r.db.Exec(ctx, q, userID, otherID); err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	return nil
}

func (r *Repository) summaries(ctx context.Context, q string, args ...any) ([]models.UserSummary, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	list := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ProfilePic); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
