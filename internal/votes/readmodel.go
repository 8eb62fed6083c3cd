package votes

import (
	"context"
	"fmt"
	"time"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// TripCounts groups vote tallies for a trip's active proposals by kind.
type TripCounts struct {
	SongVotes []models.VoteCount `json:"songVotes"`
	StopVotes []models.VoteCount `json:"stopVotes"`
}

// ReadModel answers vote queries for the trip screens.
type ReadModel struct {
	db database.DB
}

// NewReadModel creates a vote read model.
func NewReadModel(db database.DB) *ReadModel {
	return &ReadModel{db: db}
}

const songCountsQuery = `SELECT p.id,
		COUNT(v.user_id) FILTER (WHERE v.vote_value = 'yes'),
		COUNT(v.user_id) FILTER (WHERE v.vote_value = 'no')
	FROM proposed_songs p
	LEFT JOIN votes v ON v.proposal_type = 'song' AND v.proposal_id = p.id
	WHERE p.trip_id = $1 AND (p.expires_at IS NULL OR p.expires_at > $2)
	GROUP BY p.id
	ORDER BY p.id`

const stopCountsQuery = `SELECT p.id,
		COUNT(v.user_id) FILTER (WHERE v.vote_value = 'yes'),
		COUNT(v.user_id) FILTER (WHERE v.vote_value = 'no')
	FROM proposed_stops p
	LEFT JOIN votes v ON v.proposal_type = 'stop' AND v.proposal_id = p.id
	WHERE p.trip_id = $1 AND (p.expires_at IS NULL OR p.expires_at > $2)
	GROUP BY p.id
	ORDER BY p.id`

// Counts returns yes/no tallies for every proposal of the trip still active at now.
// Proposals without votes are reported with zero counts.
func (m *ReadModel) Counts(ctx context.Context, tripID int64, now time.Time) (*TripCounts, error) {
	songs, err := m.counts(ctx, songCountsQuery, tripID, now)
	if err != nil {
		return nil, fmt.Errorf("count song votes: %w", err)
	}
	stops, err := m.counts(ctx, stopCountsQuery, tripID, now)
	if err != nil {
		return nil, fmt.Errorf("count stop votes: %w", err)
	}
	return &TripCounts{SongVotes: songs, StopVotes: stops}, nil
}

func (m *ReadModel) counts(ctx context.Context, q string, tripID int64, now time.Time) ([]models.VoteCount, error) {
	rows, err := m.db.Query(ctx, q, tripID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.VoteCount{}
	for rows.Next() {
		var c models.VoteCount
		if err := rows.Scan(&c.ProposalID, &c.YesVotes, &c.NoVotes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UserVotes returns the votes userID has cast on the trip's proposals that are still active at now.
func (m *ReadModel) UserVotes(ctx context.Context, tripID, userID int64, now time.Time) ([]models.Vote, error) {
	const q = `SELECT v.user_id, v.proposal_type, v.proposal_id, v.vote_value, v.voted_at
		FROM votes v
		LEFT JOIN proposed_songs s ON v.proposal_type = 'song' AND s.id = v.proposal_id
		LEFT JOIN proposed_stops t ON v.proposal_type = 'stop' AND t.id = v.proposal_id
		WHERE v.user_id = $1
		  AND (
		    (s.trip_id = $2 AND (s.expires_at IS NULL OR s.expires_at > $3))
		    OR (t.trip_id = $2 AND (t.expires_at IS NULL OR t.expires_at > $3))
		  )
		ORDER BY v.voted_at, v.proposal_type, v.proposal_id`
	rows, err := m.db.Query(ctx, q, userID, tripID, now)
	if err != nil {
		return nil, fmt.Errorf("list user votes: %w", err)
	}
	defer rows.Close()

	out := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.UserID, &v.Kind, &v.ProposalID, &v.Value, &v.VotedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
