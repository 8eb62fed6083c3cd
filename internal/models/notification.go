package models

import "time"

// Notification kinds.
const (
	NotificationProposalConfirmed = "proposal_confirmed"
	NotificationProposalRejected  = "proposal_rejected"
)

// Notification is a message for one user about something that happened on a trip.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TripID    int64     `json:"trip_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
