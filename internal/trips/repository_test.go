package trips

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-trips/backend/pkg/database/dbtest"
)

func indexOf(calls []dbtest.Call, fragment string) int {
	for i, c := range calls {
		if strings.Contains(c.SQL, fragment) {
			return i
		}
	}
	return -1
}

func TestDeleteLocksProposalsBeforeVotes(t *testing.T) {
	db := dbtest.New(func(string, []any) dbtest.Result { return dbtest.Result{Tag: "DELETE 1"} })

	require.NoError(t, NewRepository(db).Delete(context.Background(), 5))
	assert.Equal(t, 1, db.Commits())

	calls := db.Calls()
	for _, c := range calls {
		assert.Equal(t, []any{int64(5)}, c.Args)
	}
	votes := indexOf(calls, "DELETE FROM votes")
	require.GreaterOrEqual(t, votes, 0)
	for _, table := range []string{"proposed_songs", "proposed_stops"} {
		lock := indexOf(calls, "FROM "+table+" WHERE trip_id = $1 FOR UPDATE")
		require.GreaterOrEqual(t, lock, 0, table)
		assert.Less(t, lock, votes, table)
	}
	assert.Less(t, votes, indexOf(calls, "DELETE FROM proposed_songs"))
	assert.Equal(t, "DELETE FROM trips WHERE id = $1", calls[len(calls)-1].SQL)
}

func TestDeleteMissingTripRollsBack(t *testing.T) {
	db := dbtest.New(func(string, []any) dbtest.Result { return dbtest.Result{Tag: "DELETE 0"} })

	assert.ErrorIs(t, NewRepository(db).Delete(context.Background(), 5), ErrNotFound)
	assert.Equal(t, 0, db.Commits())
	assert.Equal(t, 1, db.Rollbacks())
}
