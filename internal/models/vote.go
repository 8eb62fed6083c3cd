package models

import "time"

// VoteValue is a participant's answer on a proposal.
type VoteValue string

const (
	VoteYes VoteValue = "yes"
	VoteNo  VoteValue = "no"
)

// Valid reports whether v is yes or no.
func (v VoteValue) Valid() bool {
	return v == VoteYes || v == VoteNo
}

// Vote is keyed by (UserID, Kind, ProposalID); a later vote replaces an earlier one.
type Vote struct {
	UserID     int64        `json:"user_id"`
	Kind       ProposalKind `json:"proposal_type"`
	ProposalID int64        `json:"proposal_id"`
	Value      VoteValue    `json:"vote_value"`
	VotedAt    time.Time    `json:"voted_at,omitempty"`
}

// VoteCount is the yes/no tally for one proposal.
type VoteCount struct {
	ProposalID int64 `json:"proposal_id"`
	YesVotes   int   `json:"yes_votes"`
	NoVotes    int   `json:"no_votes"`
}

// Total is the number of votes cast.
func (c VoteCount) Total() int {
	return c.YesVotes + c.NoVotes
}
