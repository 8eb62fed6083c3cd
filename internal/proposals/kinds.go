package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// kindStore is the per-kind half of the repository. Each implementation owns the SQL for one table.
type kindStore interface {
	insert(ctx context.Context, db database.DB, p *models.Proposal) error
	listActive(ctx context.Context, db database.DB, tripID int64, now time.Time) ([]models.Proposal, error)
	getForUpdate(ctx context.Context, db database.DB, id int64) (*models.Proposal, error)
	expire(ctx context.Context, db database.DB, id int64, at time.Time) error
	expireStale(ctx context.Context, db database.DB, cutoff, now time.Time) (int64, error)
}

var stores = map[models.ProposalKind]kindStore{
	models.KindSong: songStore{},
	models.KindStop: stopStore{},
}

func storeFor(kind models.ProposalKind) (kindStore, error) {
	s, ok := stores[kind]
	if !ok {
		return nil, models.ErrInvalidKind
	}
	return s, nil
}

type songStore struct{}

func (songStore) insert(ctx context.Context, db database.DB, p *models.Proposal) error {
	const q = `INSERT INTO proposed_songs (trip_id, user_id, title, artist, album_cover, release_year, spotify_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	s := p.SongPayload
	return db.QueryRow(ctx, q, p.TripID, p.UserID, s.Title, s.Artist, s.AlbumCover, s.ReleaseYear, s.SpotifyID, p.CreatedAt, p.ExpiresAt).
		Scan(&p.ID)
}

const songColumns = `id, trip_id, user_id, title, artist, album_cover, release_year, spotify_id, created_at, expires_at`

func scanSong(row pgx.Row) (*models.Proposal, error) {
	p := models.Proposal{Kind: models.KindSong, SongPayload: &models.SongPayload{}}
	s := p.SongPayload
	if err := row.Scan(&p.ID, &p.TripID, &p.UserID, &s.Title, &s.Artist, &s.AlbumCover, &s.ReleaseYear, &s.SpotifyID, &p.CreatedAt, &p.ExpiresAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (songStore) listActive(ctx context.Context, db database.DB, tripID int64, now time.Time) ([]models.Proposal, error) {
	const q = `SELECT ` + songColumns + ` FROM proposed_songs
		WHERE trip_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at, id`
	return collect(ctx, db, q, scanSong, tripID, now)
}

func (songStore) getForUpdate(ctx context.Context, db database.DB, id int64) (*models.Proposal, error) {
	const q = `SELECT ` + songColumns + ` FROM proposed_songs WHERE id = $1 FOR UPDATE`
	return one(scanSong(db.QueryRow(ctx, q, id)))
}

func (songStore) expire(ctx context.Context, db database.DB, id int64, at time.Time) error {
	_, err := db.Exec(ctx, `UPDATE proposed_songs SET expires_at = $1 WHERE id = $2`, at, id)
	return err
}

func (songStore) expireStale(ctx context.Context, db database.DB, cutoff, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `UPDATE proposed_songs SET expires_at = $1 WHERE expires_at IS NULL AND created_at <= $2`, now, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type stopStore struct{}

func (stopStore) insert(ctx context.Context, db database.DB, p *models.Proposal) error {
	const q = `INSERT INTO proposed_stops (trip_id, user_id, name, address, detour_time, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	s := p.StopPayload
	return db.QueryRow(ctx, q, p.TripID, p.UserID, s.Name, s.Address, s.DetourTime, p.CreatedAt, p.ExpiresAt).
		Scan(&p.ID)
}

const stopColumns = `id, trip_id, user_id, name, address, detour_time, created_at, expires_at`

func scanStop(row pgx.Row) (*models.Proposal, error) {
	p := models.Proposal{Kind: models.KindStop, StopPayload: &models.StopPayload{}}
	s := p.StopPayload
	if err := row.Scan(&p.ID, &p.TripID, &p.UserID, &s.Name, &s.Address, &s.DetourTime, &p.CreatedAt, &p.ExpiresAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (stopStore) listActive(ctx context.Context, db database.DB, tripID int64, now time.Time) ([]models.Proposal, error) {
	const q = `SELECT ` + stopColumns + ` FROM proposed_stops
		WHERE trip_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at, id`
	return collect(ctx, db, q, scanStop, tripID, now)
}

func (stopStore) getForUpdate(ctx context.Context, db database.DB, id int64) (*models.Proposal, error) {
	const q = `SELECT ` + stopColumns + ` FROM proposed_stops WHERE id = $1 FOR UPDATE`
	return one(scanStop(db.QueryRow(ctx, q, id)))
}

func (stopStore) expire(ctx context.Context, db database.DB, id int64, at time.Time) error {
	_, err := db.Exec(ctx, `UPDATE proposed_stops SET expires_at = $1 WHERE id = $2`, at, id)
	return err
}

func (stopStore) expireStale(ctx context.Context, db database.DB, cutoff, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `UPDATE proposed_stops SET expires_at = $1 WHERE expires_at IS NULL AND created_at <= $2`, now, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func one(p *models.Proposal, err error) (*models.Proposal, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func collect(ctx context.Context, db database.DB, q string, scan func(pgx.Row) (*models.Proposal, error), args ...any) ([]models.Proposal, error) {
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Proposal{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
