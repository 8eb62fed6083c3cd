package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/queue"
)

// JobQueue is the part of queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// TripNotifier fans a message out to every participant of a trip.
type TripNotifier interface {
	NotifyTrip(ctx context.Context, tripID int64, kind, message string) (int64, error)
}

// NotificationProcessor turns proposal resolution jobs into per-participant notifications.
type NotificationProcessor struct {
	notifier TripNotifier
	queue    JobQueue
	logger   *zap.Logger
	backoff  time.Duration
}

// NewNotificationProcessor creates a notification job processor.
func NewNotificationProcessor(notifier TripNotifier, q JobQueue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{notifier: notifier, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeProposalResolved {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ProposalResolvedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	kind, message := Message(payload)
	n, err := p.notifier.NotifyTrip(ctx, payload.TripID, kind, message)
	if err != nil {
		return fmt.Errorf("notify trip %d: %w", payload.TripID, err)
	}

	p.logger.Info("proposal notifications written",
		zap.String("job_id", job.ID),
		zap.Int64("trip_id", payload.TripID),
		zap.Int64("proposal_id", payload.ProposalID),
		zap.Int64("recipients", n),
	)
	return nil
}

// Message renders the notification kind and text for a resolved proposal.
func Message(p queue.ProposalResolvedPayload) (kind, message string) {
	noun := "Song"
	if p.Kind == string(models.KindStop) {
		noun = "Stop"
	}
	if p.Status == "confirmed" {
		kind = models.NotificationProposalConfirmed
	} else {
		kind = models.NotificationProposalRejected
	}
	message = fmt.Sprintf("%s %q was %s (%d yes, %d no)", noun, p.Label, p.Status, p.YesVotes, p.NoVotes)
	return kind, message
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *NotificationProcessor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.backoff):
	}
}
