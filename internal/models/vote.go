package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Vote represents one selected option on one ballot. A ballot on a
// multiple-choice poll produces several rows sharing the same voter key.
//
// Two unique indexes added in the migration pass make the database the
// authoritative duplicate guard: (poll_id, voter_key) partial on
// single-choice rows, and (poll_id, voter_key, option_id) everywhere.
type Vote struct {
	gorm.Model
	PollID   uint `gorm:"not null;index" json:"pollId"`
	OptionID uint `gorm:"not null;index" json:"optionId"`
	// VoterID is set for signed-in voters and null for anonymous ballots.
	VoterID *uint `gorm:"index" json:"voterId,omitempty"`
	// VoterKey identifies the voter for uniqueness checks, either
	// "u:<id>" or "ip:<hash>" for anonymous ballots.
	VoterKey string `gorm:"not null;type:varchar(80);index" json:"-"`
	// Multi records the poll's choice mode at insert time so the partial
	// unique index can exempt multiple-choice ballots.
	Multi bool `gorm:"not null;default:false" json:"-"`
}

/** -------------------- DTOs -------------------- */
// Request
//
// Option ids arrive as strings because both id shapes are in use at the
// boundary: backend-assigned integers and UUID-shaped ids.
type CastVoteRequest struct {
	OptionIDs []string `json:"option_ids"`
}

// Response
type CastVoteResponse struct {
	PollID    uint      `json:"pollId"`
	OptionIDs []uint    `json:"optionIds"`
	Anonymous bool      `json:"anonymous"`
	CastAt    time.Time `json:"castAt"`
}
