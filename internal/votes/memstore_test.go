package votes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitstop-trips/backend/internal/models"
)

type proposalKey struct {
	kind models.ProposalKind
	id   int64
}

type voteKey struct {
	user int64
	proposalKey
}

// memStore is an in-memory Store. InTx holds a single mutex, so units of work are serialized the
// way proposal row locks serialize them in Postgres, and a failing unit is rolled back.
type memStore struct {
	mu            sync.Mutex
	proposals     map[proposalKey]models.Proposal
	participants  map[int64][]int64
	votes         map[voteKey]models.VoteValue
	confirmations []*models.Confirmation
	failConfirm   error
}

func newMemStore() *memStore {
	return &memStore{
		proposals:    map[proposalKey]models.Proposal{},
		participants: map[int64][]int64{},
		votes:        map[voteKey]models.VoteValue{},
	}
}

func (s *memStore) addTrip(tripID int64, users ...int64) {
	s.participants[tripID] = append(s.participants[tripID], users...)
}

func (s *memStore) addProposal(p *models.Proposal) {
	s.proposals[proposalKey{p.Kind, p.ID}] = *p
}

func (s *memStore) proposal(kind models.ProposalKind, id int64) models.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposals[proposalKey{kind, id}]
}

func (s *memStore) voteRows(kind models.ProposalKind, id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.votes {
		if k.proposalKey == (proposalKey{kind, id}) {
			n++
		}
	}
	return n
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	votes := make(map[voteKey]models.VoteValue, len(s.votes))
	for k, v := range s.votes {
		votes[k] = v
	}
	props := make(map[proposalKey]models.Proposal, len(s.proposals))
	for k, v := range s.proposals {
		props[k] = v
	}
	confirmations := len(s.confirmations)

	if err := fn(memTx{s}); err != nil {
		s.votes, s.proposals, s.confirmations = votes, props, s.confirmations[:confirmations]
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t memTx) LockProposal(_ context.Context, kind models.ProposalKind, id int64) (*models.Proposal, error) {
	p, ok := t.s.proposals[proposalKey{kind, id}]
	if !ok {
		return nil, ErrProposalNotFound
	}
	return &p, nil
}

func (t memTx) IsParticipant(_ context.Context, tripID, userID int64) (bool, error) {
	for _, u := range t.s.participants[tripID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) UpsertVote(_ context.Context, v models.Vote) (bool, error) {
	k := voteKey{v.UserID, proposalKey{v.Kind, v.ProposalID}}
	_, existed := t.s.votes[k]
	t.s.votes[k] = v.Value
	return !existed, nil
}

func (t memTx) CountParticipants(_ context.Context, tripID int64) (int, error) {
	return len(t.s.participants[tripID]), nil
}

func (t memTx) Tally(_ context.Context, kind models.ProposalKind, id int64) (models.VoteCount, error) {
	c := models.VoteCount{ProposalID: id}
	for k, v := range t.s.votes {
		if k.proposalKey != (proposalKey{kind, id}) {
			continue
		}
		if v == models.VoteYes {
			c.YesVotes++
		} else {
			c.NoVotes++
		}
	}
	return c, nil
}

func (t memTx) InsertConfirmation(_ context.Context, c *models.Confirmation) error {
	if t.s.failConfirm != nil {
		return t.s.failConfirm
	}
	for _, existing := range t.s.confirmations {
		if existing.Kind == c.Kind && proposalOf(existing) == proposalOf(c) {
			return errors.New("duplicate confirmation")
		}
	}
	t.s.confirmations = append(t.s.confirmations, c)
	return nil
}

func proposalOf(c *models.Confirmation) int64 {
	if c.Song != nil {
		return c.Song.ProposalID
	}
	return c.Stop.ProposalID
}

func (t memTx) ExpireProposal(_ context.Context, kind models.ProposalKind, id int64, at time.Time) error {
	k := proposalKey{kind, id}
	p := t.s.proposals[k]
	p.ExpiresAt = &at
	t.s.proposals[k] = p
	return nil
}
