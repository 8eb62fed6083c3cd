// Package votes records participant votes on proposals and resolves a proposal once every
// participant has voted: a strict yes majority confirms it, anything else rejects it.
package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
)

var (
	ErrInvalidVote      = errors.New("invalid vote type or value")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalClosed   = errors.New("proposal is no longer open for voting")
	ErrNotParticipant   = errors.New("voter is not a participant of this trip")
)

// Status is where a proposal stands after a vote.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Request is one participant's vote on one proposal.
type Request struct {
	VoterID    int64
	Kind       models.ProposalKind
	ProposalID int64
	Value      models.VoteValue
}

// Validate checks the enumerations and that both ids are present.
func (r Request) Validate() error {
	if !r.Kind.Valid() || !r.Value.Valid() || r.VoterID <= 0 || r.ProposalID <= 0 {
		return ErrInvalidVote
	}
	return nil
}

// Outcome describes a committed vote.
type Outcome struct {
	Inserted     bool
	Status       Status
	Proposal     *models.Proposal
	Participants int
	Tally        models.VoteCount
	Confirmation *models.Confirmation
	ResolvedAt   *time.Time
}

// Resolved reports whether the vote closed the proposal.
func (o *Outcome) Resolved() bool {
	return o.Status != StatusPending
}

// Store opens the unit of work in which one vote is recorded and resolved.
// Implementations must run fn atomically and serialize concurrent units on the same proposal.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside a Store unit of work.
type Tx interface {
	// LockProposal returns ErrProposalNotFound if the proposal does not exist.
	LockProposal(ctx context.Context, kind models.ProposalKind, id int64) (*models.Proposal, error)
	IsParticipant(ctx context.Context, tripID, userID int64) (bool, error)
	// UpsertVote reports true when the vote was new and false when it replaced an earlier one.
	UpsertVote(ctx context.Context, v models.Vote) (bool, error)
	CountParticipants(ctx context.Context, tripID int64) (int, error)
	Tally(ctx context.Context, kind models.ProposalKind, id int64) (models.VoteCount, error)
	InsertConfirmation(ctx context.Context, c *models.Confirmation) error
	ExpireProposal(ctx context.Context, kind models.ProposalKind, id int64, at time.Time) error
}

// Listener is told about every committed vote. Listeners must not fail the vote.
type Listener interface {
	VoteRecorded(ctx context.Context, o *Outcome)
}

// Engine is the vote tally and confirmation engine.
type Engine struct {
	store     Store
	listeners []Listener
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a vote engine.
func NewEngine(store Store, logger *zap.Logger, listeners ...Listener) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, listeners: listeners, logger: logger, now: time.Now}
}

// SubmitVote records req and resolves the proposal if quorum is reached. Everything runs in one
// store transaction, so a failure leaves no vote behind and two concurrent final votes cannot
// both confirm.
func (e *Engine) SubmitVote(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out *Outcome
	err := e.store.InTx(ctx, func(tx Tx) error {
		now := e.now()
		o, err := e.apply(ctx, tx, req, now)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, l := range e.listeners {
		l.VoteRecorded(ctx, out)
	}
	return out, nil
}

func (e *Engine) apply(ctx context.Context, tx Tx, req Request, now time.Time) (*Outcome, error) {
	p, err := tx.LockProposal(ctx, req.Kind, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if !p.Active(now) {
		return nil, ErrProposalClosed
	}
	ok, err := tx.IsParticipant(ctx, p.TripID, req.VoterID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	inserted, err := tx.UpsertVote(ctx, models.Vote{
		UserID:     req.VoterID,
		Kind:       req.Kind,
		ProposalID: req.ProposalID,
		Value:      req.Value,
		VotedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}

	participants, err := tx.CountParticipants(ctx, p.TripID)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	tally, err := tx.Tally(ctx, req.Kind, req.ProposalID)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	tally.ProposalID = req.ProposalID

	out := &Outcome{
		Inserted:     inserted,
		Status:       Resolve(participants, tally),
		Proposal:     p,
		Participants: participants,
		Tally:        tally,
	}
	if !out.Resolved() {
		return out, nil
	}

	if out.Status == StatusConfirmed {
		c := p.Confirm(now)
		if err := tx.InsertConfirmation(ctx, c); err != nil {
			return nil, fmt.Errorf("insert confirmation: %w", err)
		}
		out.Confirmation = c
	}
	if err := tx.ExpireProposal(ctx, req.Kind, req.ProposalID, now); err != nil {
		return nil, fmt.Errorf("expire proposal: %w", err)
	}
	p.ExpiresAt = &now
	out.ResolvedAt = &now

	e.logger.Info("proposal resolved",
		zap.String("kind", string(req.Kind)),
		zap.Int64("proposal_id", req.ProposalID),
		zap.Int64("trip_id", p.TripID),
		zap.String("status", string(out.Status)),
		zap.Int("yes", tally.YesVotes),
		zap.Int("no", tally.NoVotes),
		zap.Int("participants", participants),
	)
	return out, nil
}

// Resolve decides a proposal from the current electorate size and tally. A proposal stays pending
// until at least one vote per participant has been cast; an empty trip never resolves. Once the
// quorum is met, yes must strictly outnumber no to confirm; a tie rejects.
func Resolve(participants int, tally models.VoteCount) Status {
	if participants == 0 || tally.Total() < participants {
		return StatusPending
	}
	if tally.YesVotes > tally.NoVotes {
		return StatusConfirmed
	}
	return StatusRejected
}
