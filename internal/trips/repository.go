package trips

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

var (
	ErrNotFound           = errors.New("trip not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyParticipant = errors.New("user already added to trip")
)

const tripColumns = `id, creator_id, title, start_location, end_location, start_date, end_date, created_at`

// deleteCascade removes everything hanging off a trip, children first. The proposal rows are
// locked before votes are cleared so no vote can commit against them in between.
var deleteCascade = []string{
	`SELECT id FROM proposed_songs WHERE trip_id = $1 FOR UPDATE`,
	`SELECT id FROM proposed_stops WHERE trip_id = $1 FOR UPDATE`,
	`DELETE FROM trip_expenses WHERE trip_id = $1`,
	`DELETE FROM votes WHERE proposal_type = 'song' AND proposal_id IN (SELECT id FROM proposed_songs WHERE trip_id = $1)`,
	`DELETE FROM votes WHERE proposal_type = 'stop' AND proposal_id IN (SELECT id FROM proposed_stops WHERE trip_id = $1)`,
	`DELETE FROM confirmed_songs WHERE trip_id = $1`,
	`DELETE FROM confirmed_stops WHERE trip_id = $1`,
	`DELETE FROM proposed_songs WHERE trip_id = $1`,
	`DELETE FROM proposed_stops WHERE trip_id = $1`,
	`DELETE FROM trip_participants WHERE trip_id = $1`,
	`DELETE FROM trip_invites WHERE trip_id = $1`,
	`DELETE FROM notifications WHERE trip_id = $1`,
}

// Repository handles trips and trip_participants persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a trips repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the trip and its creator participant in one transaction.
func (r *Repository) Create(ctx context.Context, t *models.Trip) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `INSERT INTO trips (creator_id, title, start_location, end_location, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`
		if err := tx.QueryRow(ctx, q,
			t.CreatorID, t.Title, t.StartLocation, t.EndLocation, t.StartDate, t.EndDate,
		).Scan(&t.ID, &t.CreatedAt); err != nil {
			return err
		}
		return addParticipant(ctx, tx, t.ID, t.CreatorID, models.RoleCreator)
	})
	if database.IsForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	return nil
}

// List returns every trip, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Trip, error) {
	return r.query(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY created_at DESC`)
}

// ListByCreator returns the trips a user created, newest first.
func (r *Repository) ListByCreator(ctx context.Context, creatorID int64) ([]models.Trip, error) {
	return r.query(ctx, `SELECT `+tripColumns+` FROM trips WHERE creator_id = $1 ORDER BY created_at DESC`, creatorID)
}

// ListByUser returns the trips a user participates in, including ones they created.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips
		WHERE id IN (SELECT trip_id FROM trip_participants WHERE user_id = $1)
		ORDER BY created_at DESC`
	return r.query(ctx, q, userID)
}

// Get returns a trip by id.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Trip, error) {
	var t models.Trip
	err := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id).Scan(
		&t.ID, &t.CreatorID, &t.Title, &t.StartLocation, &t.EndLocation, &t.StartDate, &t.EndDate, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Delete removes the trip and all dependent rows atomically.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, q := range deleteCascade {
			if _, err := tx.Exec(ctx, q, id); err != nil {
				return fmt.Errorf("delete trip %d: %w", id, err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete trip %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddParticipant attaches a user to a trip.
func (r *Repository) AddParticipant(ctx context.Context, tripID, userID int64, role models.ParticipantRole) error {
	err := addParticipant(ctx, r.db, tripID, userID, role)
	switch {
	case database.IsUniqueViolation(err):
		return ErrAlreadyParticipant
	case database.IsForeignKeyViolation(err):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func addParticipant(ctx context.Context, db database.DB, tripID, userID int64, role models.ParticipantRole) error {
	_, err := db.Exec(ctx, `INSERT INTO trip_participants (trip_id, user_id, role) VALUES ($1, $2, $3)`, tripID, userID, role)
	return err
}

// Participants lists a trip's participants with their profile fields.
func (r *Repository) Participants(ctx context.Context, tripID int64) ([]models.Participant, error) {
	const q = `SELECT u.id, COALESCE(u.name, ''), u.profile_pic, tp.role
		FROM users u
		JOIN trip_participants tp ON u.id = tp.user_id
		WHERE tp.trip_id = $1
		ORDER BY tp.joined_at, u.id`
	rows, err := r.db.Query(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	list := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.ProfilePic, &p.Role); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ParticipantIDs returns the user ids on a trip.
func (r *Repository) ParticipantIDs(ctx context.Context, tripID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM trip_participants WHERE trip_id = $1 ORDER BY user_id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list participant ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsParticipant reports whether userID is on the trip.
func (r *Repository) IsParticipant(ctx context.Context, tripID, userID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trip_participants WHERE trip_id = $1 AND user_id = $2)`, tripID, userID,
	).Scan(&ok)
	return ok, err
}

// CountParticipants returns the trip's current electorate size.
func (r *Repository) CountParticipants(ctx context.Context, tripID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trip_participants WHERE trip_id = $1`, tripID).Scan(&n)
	return n, err
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]models.Trip, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	list := []models.Trip{}
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.CreatorID, &t.Title, &t.StartLocation, &t.EndLocation, &t.StartDate, &t.EndDate, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
