package votes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-trips/backend/internal/models"
)

const (
	tripID = int64(100)
	alice  = int64(1)
	bob    = int64(2)
	carol  = int64(3)
	dave   = int64(4)
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingListener struct {
	mu       sync.Mutex
	outcomes []*Outcome
}

func (l *recordingListener) VoteRecorded(_ context.Context, o *Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, o)
}

func openStop(id int64, name string) *models.Proposal {
	p := models.NewStopProposal(tripID, alice, models.StopPayload{Name: name, Address: "1 Main St", DetourTime: 12})
	p.ID = id
	p.CreatedAt = t0
	exp := t0.Add(72 * time.Hour)
	p.ExpiresAt = &exp
	return p
}

func openSong(id int64) *models.Proposal {
	cover := "https://img.test/cover.jpg"
	year := 1982
	p := models.NewSongProposal(tripID, bob, models.SongPayload{
		Title: "Africa", Artist: "Toto", AlbumCover: &cover, ReleaseYear: &year, SpotifyID: "2374M0fQpWi3dLnB54qaLX",
	})
	p.ID = id
	p.CreatedAt = t0
	exp := t0.Add(72 * time.Hour)
	p.ExpiresAt = &exp
	return p
}

func newTestEngine(s *memStore, listeners ...Listener) *Engine {
	e := NewEngine(s, nil, listeners...)
	e.now = func() time.Time { return t0.Add(time.Hour) }
	return e
}

func vote(t *testing.T, e *Engine, user int64, kind models.ProposalKind, id int64, v models.VoteValue) *Outcome {
	t.Helper()
	out, err := e.SubmitVote(context.Background(), Request{VoterID: user, Kind: kind, ProposalID: id, Value: v})
	require.NoError(t, err)
	return out
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name         string
		participants int
		yes, no      int
		want         Status
	}{
		{"empty trip never resolves", 0, 0, 0, StatusPending},
		{"quorum not met", 3, 2, 0, StatusPending},
		{"majority yes", 3, 2, 1, StatusConfirmed},
		{"unanimous yes", 1, 1, 0, StatusConfirmed},
		{"majority no", 3, 1, 2, StatusRejected},
		{"tie rejects", 2, 1, 1, StatusRejected},
		{"more votes than participants still resolves", 2, 2, 1, StatusConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.participants, models.VoteCount{YesVotes: tc.yes, NoVotes: tc.no})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJoesDinerConfirmed(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob, carol)
	s.addProposal(openStop(10, "Joe's Diner"))
	l := &recordingListener{}
	e := newTestEngine(s, l)

	out := vote(t, e, alice, models.KindStop, 10, models.VoteYes)
	assert.Equal(t, StatusPending, out.Status)
	assert.True(t, out.Inserted)
	out = vote(t, e, bob, models.KindStop, 10, models.VoteYes)
	assert.Equal(t, StatusPending, out.Status)
	out = vote(t, e, carol, models.KindStop, 10, models.VoteNo)

	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, models.VoteCount{ProposalID: 10, YesVotes: 2, NoVotes: 1}, out.Tally)
	require.NotNil(t, out.Confirmation)
	require.NotNil(t, out.Confirmation.Stop)
	assert.Equal(t, "Joe's Diner", out.Confirmation.Stop.Name)
	assert.Equal(t, alice, out.Confirmation.Stop.AddedBy)
	assert.Equal(t, tripID, out.Confirmation.Stop.TripID)
	assert.Len(t, s.confirmations, 1)

	p := s.proposal(models.KindStop, 10)
	require.NotNil(t, p.ExpiresAt)
	assert.False(t, p.ExpiresAt.After(e.now()))
	assert.False(t, p.Active(e.now()))
	assert.Len(t, l.outcomes, 3)
}

func TestMajorityNoRejects(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob, carol)
	s.addProposal(openStop(11, "Gas station"))
	e := newTestEngine(s)

	vote(t, e, alice, models.KindStop, 11, models.VoteNo)
	vote(t, e, bob, models.KindStop, 11, models.VoteNo)
	out := vote(t, e, carol, models.KindStop, 11, models.VoteYes)

	assert.Equal(t, StatusRejected, out.Status)
	assert.Nil(t, out.Confirmation)
	assert.Empty(t, s.confirmations)
	p := s.proposal(models.KindStop, 11)
	assert.False(t, p.Active(e.now()))
}

func TestTieRejects(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob)
	s.addProposal(openStop(12, "Tie"))
	e := newTestEngine(s)

	vote(t, e, alice, models.KindStop, 12, models.VoteYes)
	out := vote(t, e, bob, models.KindStop, 12, models.VoteNo)
	assert.Equal(t, StatusRejected, out.Status)
	assert.Empty(t, s.confirmations)
}

func TestSongPayloadCopiedIntoConfirmation(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice)
	song := openSong(20)
	s.addProposal(song)
	e := newTestEngine(s)

	out := vote(t, e, alice, models.KindSong, 20, models.VoteYes)
	require.Equal(t, StatusConfirmed, out.Status)
	c := out.Confirmation.Song
	require.NotNil(t, c)
	assert.Equal(t, song.Title, c.Title)
	assert.Equal(t, song.Artist, c.Artist)
	assert.Equal(t, song.SpotifyID, c.SpotifyTrackID)
	assert.Equal(t, song.AlbumCover, c.AlbumCoverURL)
	assert.Equal(t, song.ReleaseYear, c.ReleaseYear)
	assert.Equal(t, bob, c.AddedBy)
	assert.Equal(t, int64(20), c.ProposalID)
}

func TestRevoteReplacesEarlierVote(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob)
	s.addProposal(openStop(13, "Museum"))
	e := newTestEngine(s)

	first := vote(t, e, alice, models.KindStop, 13, models.VoteYes)
	second := vote(t, e, alice, models.KindStop, 13, models.VoteNo)

	assert.True(t, first.Inserted)
	assert.False(t, second.Inserted)
	assert.Equal(t, StatusPending, second.Status)
	assert.Equal(t, 0, second.Tally.YesVotes)
	assert.Equal(t, 1, second.Tally.NoVotes)
	assert.Equal(t, 1, s.voteRows(models.KindStop, 13))
}

func TestSubmitVoteErrors(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob)
	s.addProposal(openStop(14, "Open"))
	stale := openStop(15, "Stale")
	at := t0.Add(time.Hour) // equal to engine now
	stale.ExpiresAt = &at
	s.addProposal(stale)
	e := newTestEngine(s)
	ctx := context.Background()

	_, err := e.SubmitVote(ctx, Request{VoterID: alice, Kind: "hotel", ProposalID: 14, Value: models.VoteYes})
	assert.ErrorIs(t, err, ErrInvalidVote)
	_, err = e.SubmitVote(ctx, Request{VoterID: alice, Kind: models.KindStop, ProposalID: 14, Value: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidVote)
	_, err = e.SubmitVote(ctx, Request{VoterID: alice, Kind: models.KindStop, ProposalID: 999, Value: models.VoteYes})
	assert.ErrorIs(t, err, ErrProposalNotFound)
	_, err = e.SubmitVote(ctx, Request{VoterID: alice, Kind: models.KindSong, ProposalID: 14, Value: models.VoteYes})
	assert.ErrorIs(t, err, ErrProposalNotFound, "ids are scoped per kind")
	_, err = e.SubmitVote(ctx, Request{VoterID: dave, Kind: models.KindStop, ProposalID: 14, Value: models.VoteYes})
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = e.SubmitVote(ctx, Request{VoterID: alice, Kind: models.KindStop, ProposalID: 15, Value: models.VoteYes})
	assert.ErrorIs(t, err, ErrProposalClosed)

	assert.Empty(t, s.votes)
}

func TestResolvedProposalIsClosed(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice)
	s.addProposal(openStop(16, "Once"))
	e := newTestEngine(s)

	vote(t, e, alice, models.KindStop, 16, models.VoteYes)
	_, err := e.SubmitVote(context.Background(), Request{VoterID: alice, Kind: models.KindStop, ProposalID: 16, Value: models.VoteNo})
	assert.ErrorIs(t, err, ErrProposalClosed)
	assert.Len(t, s.confirmations, 1)
}

func TestFailedConfirmationRollsBackVote(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice)
	s.addProposal(openStop(17, "Flaky"))
	s.failConfirm = errors.New("disk full")
	l := &recordingListener{}
	e := newTestEngine(s, l)

	_, err := e.SubmitVote(context.Background(), Request{VoterID: alice, Kind: models.KindStop, ProposalID: 17, Value: models.VoteYes})
	require.Error(t, err)
	assert.Equal(t, 0, s.voteRows(models.KindStop, 17))
	p := s.proposal(models.KindStop, 17)
	assert.True(t, p.Active(e.now()))
	assert.Empty(t, l.outcomes)
}

func TestConcurrentFinalVotesConfirmOnce(t *testing.T) {
	const voters = 25
	s := newMemStore()
	users := make([]int64, voters)
	for i := range users {
		users[i] = int64(1000 + i)
	}
	s.addTrip(tripID, users...)
	s.addProposal(openStop(18, "Crowded"))
	e := newTestEngine(s)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		errs      []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			out, err := e.SubmitVote(context.Background(), Request{VoterID: u, Kind: models.KindStop, ProposalID: 18, Value: models.VoteYes})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if out.Status == StatusConfirmed {
				confirmed++
			}
		}(u)
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, confirmed)
	assert.Len(t, s.confirmations, 1)
	assert.Equal(t, voters, s.voteRows(models.KindStop, 18))
}
