package votes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/internal/proposals"
	"github.com/pitstop-trips/backend/pkg/database/dbtest"
)

func TestPostgresStoreUpsertAndTally(t *testing.T) {
	db := dbtest.New(func(sql string, _ []any) dbtest.Result {
		switch {
		case strings.Contains(sql, "INSERT INTO votes"):
			return dbtest.Result{Values: []any{false}}
		case strings.Contains(sql, "FROM votes"):
			return dbtest.Result{Values: []any{int64(2), int64(1)}}
		}
		return dbtest.Result{}
	})
	store := NewPostgresStore(db, proposals.NewRepository(db, 0))
	v := models.Vote{UserID: bob, Kind: models.KindStop, ProposalID: 10, Value: models.VoteYes, VotedAt: t0}

	var inserted bool
	var tally models.VoteCount
	err := store.InTx(context.Background(), func(tx Tx) error {
		var err error
		if inserted, err = tx.UpsertVote(context.Background(), v); err != nil {
			return err
		}
		tally, err = tx.Tally(context.Background(), models.KindStop, 10)
		return err
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, models.VoteCount{ProposalID: 10, YesVotes: 2, NoVotes: 1}, tally)
	assert.Equal(t, 1, db.Commits())

	calls := db.Calls()
	require.Len(t, calls, 2)
	upsert := strings.Join(strings.Fields(calls[0].SQL), " ")
	assert.Contains(t, upsert, "ON CONFLICT (user_id, proposal_type, proposal_id) DO UPDATE")
	assert.Contains(t, upsert, "RETURNING (xmax = 0)")
	assert.Equal(t, []any{bob, models.KindStop, int64(10), models.VoteYes, t0}, calls[0].Args)
	assert.Equal(t, []any{models.KindStop, int64(10)}, calls[1].Args)
}

func TestPostgresStoreRollsBackOnError(t *testing.T) {
	db := dbtest.New(nil)
	store := NewPostgresStore(db, proposals.NewRepository(db, 0))

	boom := errors.New("boom")
	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockProposal(context.Background(), models.KindSong, 99)
		assert.ErrorIs(t, err, ErrProposalNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, db.Commits())
	assert.Equal(t, 1, db.Rollbacks())
}
