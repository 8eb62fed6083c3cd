package models

import "time"

// ParticipantRole is a user's role on a trip.
type ParticipantRole string

const (
	RoleCreator ParticipantRole = "creator"
	RoleMember  ParticipantRole = "member"
)

// Trip is a planned road trip.
type Trip struct {
	ID            int64     `json:"id"`
	CreatorID     int64     `json:"creator_id"`
	Title         string    `json:"title"`
	StartLocation string    `json:"start_location"`
	EndLocation   string    `json:"end_location"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Participant is a user attached to a trip.
type Participant struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	ProfilePic *string         `json:"profile_pic"`
	Role       ParticipantRole `json:"role"`
}
