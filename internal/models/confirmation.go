package models

import "time"

// ConfirmedSong is a song accepted into a trip's playlist.
type ConfirmedSong struct {
	ID             int64     `json:"id"`
	TripID         int64     `json:"trip_id"`
	ProposalID     int64     `json:"proposal_id"`
	SpotifyTrackID string    `json:"spotify_track_id"`
	Title          string    `json:"title"`
	Artist         string    `json:"artist"`
	AlbumCoverURL  *string   `json:"album_cover_url"`
	ReleaseYear    *int      `json:"release_year"`
	AddedBy        int64     `json:"added_by"`
	AddedAt        time.Time `json:"added_at"`
}

// ConfirmedStop is a stop accepted into a trip's itinerary.
type ConfirmedStop struct {
	ID         int64     `json:"id"`
	TripID     int64     `json:"trip_id"`
	ProposalID int64     `json:"proposal_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	DetourTime int       `json:"detour_time"`
	AddedBy    int64     `json:"added_by"`
	AddedAt    time.Time `json:"added_at"`
}

// Confirmation wraps the variant produced when a proposal wins its vote.
type Confirmation struct {
	Kind ProposalKind   `json:"proposal_type"`
	Song *ConfirmedSong `json:"song,omitempty"`
	Stop *ConfirmedStop `json:"stop,omitempty"`
}
