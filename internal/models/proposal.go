package models

import (
	"errors"
	"time"
)

// ProposalKind selects between the song and stop proposal variants.
type ProposalKind string

const (
	KindSong ProposalKind = "song"
	KindStop ProposalKind = "stop"
)

// ProposalKinds lists every kind, in sweep order.
var ProposalKinds = []ProposalKind{KindSong, KindStop}

// ErrInvalidKind is returned for anything other than "song" or "stop".
var ErrInvalidKind = errors.New("proposal type must be song or stop")

// ParseProposalKind validates s as a ProposalKind.
func ParseProposalKind(s string) (ProposalKind, error) {
	k := ProposalKind(s)
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k ProposalKind) Valid() bool {
	return k == KindSong || k == KindStop
}

// SongPayload is the song-specific part of a proposal.
type SongPayload struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	AlbumCover  *string `json:"album_cover"`
	ReleaseYear *int    `json:"release_year"`
	SpotifyID   string  `json:"spotify_id"`
}

// StopPayload is the stop-specific part of a proposal. DetourTime is in minutes.
type StopPayload struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	DetourTime int    `json:"detour_time"`
}

// Proposal is a pending song or stop awaiting votes. Exactly one payload is set, matching Kind.
type Proposal struct {
	ID     int64        `json:"id"`
	Kind   ProposalKind `json:"proposal_type"`
	TripID int64        `json:"trip_id"`
	UserID int64        `json:"user_id"`
	*SongPayload
	*StopPayload
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// NewSongProposal builds a song proposal.
func NewSongProposal(tripID, userID int64, song SongPayload) *Proposal {
	return &Proposal{Kind: KindSong, TripID: tripID, UserID: userID, SongPayload: &song}
}

// NewStopProposal builds a stop proposal.
func NewStopProposal(tripID, userID int64, stop StopPayload) *Proposal {
	return &Proposal{Kind: KindStop, TripID: tripID, UserID: userID, StopPayload: &stop}
}

// Validation errors for proposals.
var (
	ErrMissingSongData = errors.New("missing required song data")
	ErrMissingStopData = errors.New("missing required stop data")
)

// Validate checks the fields required for the proposal's kind.
func (p *Proposal) Validate() error {
	switch p.Kind {
	case KindSong:
		s := p.SongPayload
		if p.TripID <= 0 || p.UserID <= 0 || s == nil || s.Title == "" || s.Artist == "" || s.SpotifyID == "" {
			return ErrMissingSongData
		}
	case KindStop:
		s := p.StopPayload
		if p.TripID <= 0 || p.UserID <= 0 || s == nil || s.Name == "" || s.Address == "" {
			return ErrMissingStopData
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// Active reports whether the proposal can still be listed and voted on at now.
func (p *Proposal) Active(now time.Time) bool {
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// Confirm copies the proposal's payload into an immutable confirmation attributed to the proposer.
func (p *Proposal) Confirm(at time.Time) *Confirmation {
	c := &Confirmation{Kind: p.Kind}
	switch p.Kind {
	case KindSong:
		c.Song = &ConfirmedSong{
			TripID:         p.TripID,
			ProposalID:     p.ID,
			SpotifyTrackID: p.SongPayload.SpotifyID,
			Title:          p.SongPayload.Title,
			Artist:         p.SongPayload.Artist,
			AlbumCoverURL:  p.SongPayload.AlbumCover,
			ReleaseYear:    p.SongPayload.ReleaseYear,
			AddedBy:        p.UserID,
			AddedAt:        at,
		}
	case KindStop:
		c.Stop = &ConfirmedStop{
			TripID:     p.TripID,
			ProposalID: p.ID,
			Name:       p.StopPayload.Name,
			Address:    p.StopPayload.Address,
			DetourTime: p.StopPayload.DetourTime,
			AddedBy:    p.UserID,
			AddedAt:    at,
		}
	}
	return c
}

// Label is a short human description used in notifications.
func (p *Proposal) Label() string {
	switch {
	case p.SongPayload != nil:
		return p.SongPayload.Title + " by " + p.SongPayload.Artist
	case p.StopPayload != nil:
		return p.StopPayload.Name
	}
	return string(p.Kind)
}
