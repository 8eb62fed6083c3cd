package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// ErrNotFound is returned when a proposal id does not exist for its kind.
var ErrNotFound = errors.New("proposal not found")

// ErrTripNotFound is returned when proposing against a trip or user that does not exist.
var ErrTripNotFound = errors.New("trip or user not found")

// Repository handles proposed_songs / proposed_stops persistence.
type Repository struct {
	db  database.DB
	ttl time.Duration
}

// NewRepository creates a proposals repository. ttl is how long a new proposal stays open.
func NewRepository(db database.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl}
}

// WithDB returns a copy of the repository bound to db (typically a transaction).
func (r *Repository) WithDB(db database.DB) *Repository {
	return &Repository{db: db, ttl: r.ttl}
}

// Propose validates and inserts p, scheduling its expiry ttl after now. p.ID is set on success.
func (r *Repository) Propose(ctx context.Context, p *models.Proposal, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	store, err := storeFor(p.Kind)
	if err != nil {
		return err
	}
	expires := now.Add(r.ttl)
	p.CreatedAt = now
	p.ExpiresAt = &expires
	if err := store.insert(ctx, r.db, p); err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrTripNotFound
		}
		return fmt.Errorf("insert %s proposal: %w", p.Kind, err)
	}
	return nil
}

// ListActive returns the trip's proposals of kind that have not expired at now, oldest first.
func (r *Repository) ListActive(ctx context.Context, kind models.ProposalKind, tripID int64, now time.Time) ([]models.Proposal, error) {
	store, err := storeFor(kind)
	if err != nil {
		return nil, err
	}
	list, err := store.listActive(ctx, r.db, tripID, now)
	if err != nil {
		return nil, fmt.Errorf("list active %s proposals: %w", kind, err)
	}
	return list, nil
}

// GetForUpdate loads a proposal and locks its row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, kind models.ProposalKind, id int64) (*models.Proposal, error) {
	store, err := storeFor(kind)
	if err != nil {
		return nil, err
	}
	return store.getForUpdate(ctx, r.db, id)
}

// Expire sets the proposal's expires_at to at, making it inactive.
func (r *Repository) Expire(ctx context.Context, kind models.ProposalKind, id int64, at time.Time) error {
	store, err := storeFor(kind)
	if err != nil {
		return err
	}
	if err := store.expire(ctx, r.db, id, at); err != nil {
		return fmt.Errorf("expire %s proposal %d: %w", kind, id, err)
	}
	return nil
}

// ExpireStale marks every unscheduled proposal created at or before now-maxAge as expired at now.
// It returns the number of rows touched per kind.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time, maxAge time.Duration) (map[models.ProposalKind]int64, error) {
	cutoff := now.Add(-maxAge)
	out := make(map[models.ProposalKind]int64, len(models.ProposalKinds))
	for _, kind := range models.ProposalKinds {
		n, err := stores[kind].expireStale(ctx, r.db, cutoff, now)
		if err != nil {
			return out, fmt.Errorf("expire stale %s proposals: %w", kind, err)
		}
		out[kind] = n
	}
	return out, nil
}
