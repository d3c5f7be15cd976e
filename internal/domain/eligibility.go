package domain

import "time"

// Decision is the outcome of a vote eligibility check.
type Decision string

const (
	DecisionAllowVote          Decision = "allow-vote"
	DecisionDenyExpired        Decision = "deny-expired"
	DecisionDenyInactive       Decision = "deny-inactive"
	DecisionDenyUnauthorized   Decision = "deny-unauthorized"
	DecisionDenyTooManyOptions Decision = "deny-too-many-options"
	DecisionDenyInvalidOption  Decision = "deny-invalid-option"
	DecisionDenyDuplicate      Decision = "deny-duplicate"
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	return string(d)
}

// Allowed reports whether the decision permits the vote.
func (d Decision) Allowed() bool {
	return d == DecisionAllowVote
}

// PollSnapshot is the poll state an eligibility check runs against. It is a
// plain value so the check never touches storage.
type PollSnapshot struct {
	ID            string
	CreatorID     string
	OptionIDs     []string
	IsActive      bool
	IsPrivate     bool
	AllowMultiple bool
	ExpiresAt     *time.Time
}

// Requester identifies who is attempting the action.
type Requester struct {
	ID      string
	IsAdmin bool
}

// CheckVote decides whether a ballot may be cast. Rules are checked in a
// fixed order and the first failing rule wins:
//
//	expired > inactive > unauthorized > too many options > unknown option > duplicate
//
// The selection-size bound is checked before option membership, so an
// oversized ballot is rejected as too large even when it also names unknown
// options. hasVoted is the caller's prior-vote lookup; the unique constraint
// in storage remains the authoritative duplicate guard.
func CheckVote(poll PollSnapshot, by Requester, optionIDs []string, hasVoted bool, now time.Time) Decision {
	if poll.ExpiresAt != nil && !now.Before(*poll.ExpiresAt) {
		return DecisionDenyExpired
	}
	if !poll.IsActive {
		return DecisionDenyInactive
	}
	if poll.IsPrivate && by.ID != poll.CreatorID && !by.IsAdmin {
		return DecisionDenyUnauthorized
	}

	limit := 1
	if poll.AllowMultiple {
		limit = MaxSelections
	}
	if len(optionIDs) > limit {
		return DecisionDenyTooManyOptions
	}

	owned := make(map[string]struct{}, len(poll.OptionIDs))
	for _, id := range poll.OptionIDs {
		owned[id] = struct{}{}
	}
	for _, id := range optionIDs {
		if _, ok := owned[id]; !ok {
			return DecisionDenyInvalidOption
		}
	}

	if !poll.AllowMultiple && hasVoted {
		return DecisionDenyDuplicate
	}
	return DecisionAllowVote
}

// CanView reports whether the requester may read the poll and its results.
// Expired and deactivated polls stay readable; only the private flag
// restricts access.
func CanView(poll PollSnapshot, by Requester) bool {
	if !poll.IsPrivate {
		return true
	}
	return by.ID == poll.CreatorID || by.IsAdmin
}
