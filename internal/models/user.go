package models

import "time"

// User is a PITSTOP account, keyed internally by a numeric id and externally by its Firebase UID.
type User struct {
	ID          int64     `json:"id"`
	FirebaseUID string    `json:"-"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	ProfilePic  *string   `json:"profile_pic"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserSummary is the subset of a user shown in lists (friends, search, participants).
type UserSummary struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	ProfilePic *string `json:"profile_pic"`
}
