package friends

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-trips/backend/pkg/database/dbtest"
)

// A reversed request that slips past the EXISTS check hits the pair index instead.
func TestRequestReversedPairRaceIsConflict(t *testing.T) {
	db := dbtest.New(func(sql string, _ []any) dbtest.Result {
		if strings.Contains(sql, "SELECT EXISTS") {
			return dbtest.Result{Values: []any{false}}
		}
		return dbtest.Result{Err: &pgconn.PgError{Code: "23505", ConstraintName: "friendships_pair_idx"}}
	})

	err := NewRepository(db).Request(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, 1, db.Rollbacks())
}

func TestRequestExistingEitherDirection(t *testing.T) {
	db := dbtest.New(func(string, []any) dbtest.Result { return dbtest.Result{Values: []any{true}} })

	err := NewRepository(db).Request(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrExists)
	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{int64(1), int64(2)}, calls[0].Args)
}

func TestRequestInserts(t *testing.T) {
	db := dbtest.New(func(sql string, _ []any) dbtest.Result {
		if strings.Contains(sql, "SELECT EXISTS") {
			return dbtest.Result{Values: []any{false}}
		}
		return dbtest.Result{Tag: "INSERT 0 1"}
	})

	require.NoError(t, NewRepository(db).Request(context.Background(), 1, 2))
	assert.Equal(t, 1, db.Commits())
	assert.Contains(t, db.Calls()[1].SQL, "INSERT INTO friendships")
}

func TestRequestSelf(t *testing.T) {
	db := dbtest.New(nil)
	assert.ErrorIs(t, NewRepository(db).Request(context.Background(), 3, 3), ErrSelf)
	assert.Empty(t, db.Calls())
}
