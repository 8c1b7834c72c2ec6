package models

import "time"

// VoteType distinguishes up and down votes.
type VoteType string

const (
	VoteTypeUp   VoteType = "UPVOTE"
	VoteTypeDown VoteType = "DOWNVOTE"
)

// Valid reports whether the vote type is one of the known values.
func (t VoteType) Valid() bool {
	return t == VoteTypeUp || t == VoteTypeDown
}

// Vote is a community up/down vote cast by one profile on another.
// At most one vote exists per (voter, target) pair; re-casting the same
// type retracts it, casting the opposite type switches it.
type Vote struct {
	ID        string    `db:"id" json:"id"`
	VoterID   string    `db:"voter_id" json:"voter_id"`
	TargetID  string    `db:"target_id" json:"target_id"`
	Type      VoteType  `db:"vote_type" json:"vote_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VoteAction describes the transition applied by a cast.
type VoteAction string

const (
	VoteActionCreated  VoteAction = "created"
	VoteActionRemoved  VoteAction = "removed"
	VoteActionSwitched VoteAction = "switched"
)

// VoteResult reports what a cast did and the resulting vote, if any.
type VoteResult struct {
	Action VoteAction `json:"action"`
	Vote   *Vote      `json:"vote,omitempty"`
}
