package models

import "time"

// Friendship statuses.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Trip invite statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// PendingInvite is a trip invite awaiting a response, joined with readable trip and sender data.
type PendingInvite struct {
	InviteID   int64  `json:"inviteId"`
	TripID     int64  `json:"trip_id"`
	Title      string `json:"title"`
	SenderName string `json:"sender_name"`
}

// TripInvite is a request for a user to join a trip.
type TripInvite struct {
	ID         int64     `json:"id"`
	TripID     int64     `json:"trip_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
