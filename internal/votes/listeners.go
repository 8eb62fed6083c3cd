package votes

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/queue"
)

// Live trip events.
const (
	eventVoteRecorded     = "vote_recorded"
	eventProposalResolved = "proposal_resolved"
)

// RoomPublisher pushes an event to everyone watching a trip.
type RoomPublisher interface {
	PublishToTripOnly(tripID int64, event string, payload interface{})
}

// RoomListener forwards committed votes to the trip's realtime room.
type RoomListener struct {
	rooms RoomPublisher
}

// NewRoomListener creates a listener publishing to rooms.
func NewRoomListener(rooms RoomPublisher) *RoomListener {
	return &RoomListener{rooms: rooms}
}

// VoteRecorded implements Listener.
func (l *RoomListener) VoteRecorded(_ context.Context, o *Outcome) {
	tripID := o.Proposal.TripID
	l.rooms.PublishToTripOnly(tripID, eventVoteRecorded, map[string]interface{}{
		"proposal_type": o.Proposal.Kind,
		"proposal_id":   o.Proposal.ID,
		"yes_votes":     o.Tally.YesVotes,
		"no_votes":      o.Tally.NoVotes,
		"participants":  o.Participants,
	})
	if !o.Resolved() {
		return
	}
	l.rooms.PublishToTripOnly(tripID, eventProposalResolved, map[string]interface{}{
		"proposal_type": o.Proposal.Kind,
		"proposal_id":   o.Proposal.ID,
		"status":        o.Status,
		"confirmation":  o.Confirmation,
	})
}

// Enqueuer schedules notification jobs.
type Enqueuer interface {
	EnqueueProposalResolved(ctx context.Context, payload queue.ProposalResolvedPayload) error
}

// QueueListener enqueues a notification job for each resolved proposal.
type QueueListener struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewQueueListener creates a listener feeding the notification queue.
func NewQueueListener(q Enqueuer, logger *zap.Logger) *QueueListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueListener{queue: q, logger: logger}
}

// VoteRecorded implements Listener.
func (l *QueueListener) VoteRecorded(ctx context.Context, o *Outcome) {
	if !o.Resolved() {
		return
	}
	resolvedAt := time.Now()
	if o.ResolvedAt != nil {
		resolvedAt = *o.ResolvedAt
	}
	payload := queue.ProposalResolvedPayload{
		TripID:     o.Proposal.TripID,
		Kind:       string(o.Proposal.Kind),
		ProposalID: o.Proposal.ID,
		Label:      o.Proposal.Label(),
		Status:     string(o.Status),
		YesVotes:   o.Tally.YesVotes,
		NoVotes:    o.Tally.NoVotes,
		ResolvedAt: resolvedAt,
	}
	// The vote is already committed, so the request context may be canceled by now.
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.queue.EnqueueProposalResolved(enqueueCtx, payload); err != nil {
		l.logger.Error("enqueue proposal notification", zap.Error(err),
			zap.Int64("trip_id", payload.TripID), zap.Int64("proposal_id", payload.ProposalID))
	}
}
