package votes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/confirmed"
	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/internal/proposals"
	"github.com/pitstop-trips/backend/internal/trips"
	"github.com/pitstop-trips/backend/pkg/database"
)

// PostgresStore runs each vote in a database transaction. The proposal row lock taken by
// LockProposal serializes concurrent votes on the same proposal.
type PostgresStore struct {
	db        database.DB
	proposals *proposals.Repository
}

// NewPostgresStore creates a vote store over db.
func NewPostgresStore(db database.DB, proposals *proposals.Repository) *PostgresStore {
	return &PostgresStore{db: db, proposals: proposals}
}

// InTx implements Store.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:        tx,
			proposals: s.proposals.WithDB(tx),
			trips:     trips.NewRepository(tx),
			confirmed: confirmed.NewRepository(tx),
		})
	})
}

type pgTx struct {
	tx        pgx.Tx
	proposals *proposals.Repository
	trips     *trips.Repository
	confirmed *confirmed.Repository
}

func (t *pgTx) LockProposal(ctx context.Context, kind models.ProposalKind, id int64) (*models.Proposal, error) {
	p, err := t.proposals.GetForUpdate(ctx, kind, id)
	if errors.Is(err, proposals.ErrNotFound) {
		return nil, ErrProposalNotFound
	}
	return p, err
}

func (t *pgTx) IsParticipant(ctx context.Context, tripID, userID int64) (bool, error) {
	return t.trips.IsParticipant(ctx, tripID, userID)
}

// UpsertVote relies on xmax being zero only for freshly inserted tuples.
func (t *pgTx) UpsertVote(ctx context.Context, v models.Vote) (bool, error) {
	const q = `INSERT INTO votes (user_id, proposal_type, proposal_id, vote_value, voted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, proposal_type, proposal_id)
		DO UPDATE SET vote_value = EXCLUDED.vote_value, voted_at = EXCLUDED.voted_at
		RETURNING (xmax = 0)`
	var inserted bool
	err := t.tx.QueryRow(ctx, q, v.UserID, v.Kind, v.ProposalID, v.Value, v.VotedAt).Scan(&inserted)
	return inserted, err
}

func (t *pgTx) CountParticipants(ctx context.Context, tripID int64) (int, error) {
	return t.trips.CountParticipants(ctx, tripID)
}

func (t *pgTx) Tally(ctx context.Context, kind models.ProposalKind, id int64) (models.VoteCount, error) {
	const q = `SELECT
			COUNT(*) FILTER (WHERE vote_value = 'yes'),
			COUNT(*) FILTER (WHERE vote_value = 'no')
		FROM votes WHERE proposal_type = $1 AND proposal_id = $2`
	c := models.VoteCount{ProposalID: id}
	err := t.tx.QueryRow(ctx, q, kind, id).Scan(&c.YesVotes, &c.NoVotes)
	return c, err
}

func (t *pgTx) InsertConfirmation(ctx context.Context, c *models.Confirmation) error {
	return t.confirmed.Insert(ctx, c)
}

func (t *pgTx) ExpireProposal(ctx context.Context, kind models.ProposalKind, id int64, at time.Time) error {
	return t.proposals.Expire(ctx, kind, id, at)
}
