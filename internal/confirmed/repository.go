package confirmed

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// ErrAlreadyConfirmed is returned when a proposal already has a confirmation row.
var ErrAlreadyConfirmed = errors.New("proposal already confirmed")

// Repository handles confirmed_songs / confirmed_stops persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a confirmed items repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes c and sets the new row id on the wrapped variant.
func (r *Repository) Insert(ctx context.Context, c *models.Confirmation) error {
	var err error
	switch {
	case c.Kind == models.KindSong && c.Song != nil:
		err = r.insertSong(ctx, c.Song)
	case c.Kind == models.KindStop && c.Stop != nil:
		err = r.insertStop(ctx, c.Stop)
	default:
		return models.ErrInvalidKind
	}
	if database.IsUniqueViolation(err) {
		return ErrAlreadyConfirmed
	}
	if err != nil {
		return fmt.Errorf("insert confirmed %s: %w", c.Kind, err)
	}
	return nil
}

func (r *Repository) insertSong(ctx context.Context, s *models.ConfirmedSong) error {
	const q = `INSERT INTO confirmed_songs (trip_id, proposal_id, title, artist, album_cover_url, release_year, spotify_track_id, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	return r.db.QueryRow(ctx, q,
		s.TripID, s.ProposalID, s.Title, s.Artist, s.AlbumCoverURL, s.ReleaseYear, s.SpotifyTrackID, s.AddedBy, s.AddedAt,
	).Scan(&s.ID)
}

func (r *Repository) insertStop(ctx context.Context, s *models.ConfirmedStop) error {
	const q = `INSERT INTO confirmed_stops (trip_id, proposal_id, name, address, detour_time, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	return r.db.QueryRow(ctx, q,
		s.TripID, s.ProposalID, s.Name, s.Address, s.DetourTime, s.AddedBy, s.AddedAt,
	).Scan(&s.ID)
}

// ListSongs returns the trip's confirmed playlist in the order songs were accepted.
func (r *Repository) ListSongs(ctx context.Context, tripID int64) ([]models.ConfirmedSong, error) {
	const q = `SELECT id, trip_id, proposal_id, title, artist, album_cover_url, release_year, spotify_track_id, added_by, added_at
		FROM confirmed_songs WHERE trip_id = $1 ORDER BY added_at, id`
	rows, err := r.db.Query(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed songs: %w", err)
	}
	defer rows.Close()

	list := []models.ConfirmedSong{}
	for rows.Next() {
		var s models.ConfirmedSong
		if err := rows.Scan(&s.ID, &s.TripID, &s.ProposalID, &s.Title, &s.Artist, &s.AlbumCoverURL,
			&s.ReleaseYear, &s.SpotifyTrackID, &s.AddedBy, &s.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListStops returns the trip's confirmed itinerary in the order stops were accepted.
func (r *Repository) ListStops(ctx context.Context, tripID int64) ([]models.ConfirmedStop, error) {
	const q = `SELECT id, trip_id, proposal_id, name, address, detour_time, added_by, added_at
		FROM confirmed_stops WHERE trip_id = $1 ORDER BY added_at, id`
	rows, err := r.db.Query(ctx, q, tripID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed stops: %w", err)
	}
	defer rows.Close()

	list := []models.ConfirmedStop{}
	for rows.Next() {
		var s models.ConfirmedStop
		if err := rows.Scan(&s.ID, &s.TripID, &s.ProposalID, &s.Name, &s.Address, &s.DetourTime, &s.AddedBy, &s.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
