package models

import (
	"time"

	"poll-service/internal/domain"
)

// Kafka topic carrying vote events from the API to the tally worker
const VoteEventsTopic = "poll.votes"

// VoteEvent is published to Kafka after a ballot is committed. The worker
// recomputes the poll's tally from storage on receipt, so the event only
// needs to say which poll changed.
type VoteEvent struct {
	PollID    uint      `json:"poll_id"`
	OptionIDs []uint    `json:"option_ids"`
	Anonymous bool      `json:"anonymous"`
	CastAt    time.Time `json:"cast_at"`
}

// TallyUpdateEvent fans out to result subscribers over Redis Pub/Sub and
// the WebSocket hub.
type TallyUpdateEvent struct {
	PollID     uint                 `json:"poll_id"`
	TotalVotes int64                `json:"total_votes"`
	Options    []domain.OptionShare `json:"options"`
	UpdatedAt  time.Time            `json:"updated_at"`
}
