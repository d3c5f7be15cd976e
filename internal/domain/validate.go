package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Poll policy limits. Handlers and services share these so the rules stay in
// one place.
const (
	MinTitleLength   = 3
	MinOptionCount   = 2
	MaxOptionLength  = 100
	MaxSelections    = 10
	MaxCommentDepth  = 3
	MaxContentLength = 2000
)

// ValidationError reports the first rule a payload violated. The message is
// stable for a given input, so callers can return it to the client as-is.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PollDraft is the payload shape checked before a poll is created.
type PollDraft struct {
	Title       string
	Description string
	Options     []string
	CreatorID   string
	ExpiresAt   *time.Time
}

// VoteDraft is the payload shape checked before a vote is recorded.
type VoteDraft struct {
	PollID    string
	OptionIDs []string
	VoterID   string
}

// ValidateTitle checks the poll title rules on their own, for creation and
// for later renames alike.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("title", "Poll title is required")
	}
	if len(title) < MinTitleLength {
		return invalid("title", fmt.Sprintf("Poll title must be at least %d characters", MinTitleLength))
	}
	return nil
}

// ValidatePollDraft checks a poll creation payload. Checks run in a fixed
// order and stop at the first violation. now is passed in so the expiry
// check stays deterministic.
func ValidatePollDraft(draft PollDraft, now time.Time) error {
	if err := ValidateTitle(draft.Title); err != nil {
		return err
	}

	if len(draft.Options) < MinOptionCount {
		return invalid("options", fmt.Sprintf("Poll must have at least %d options", MinOptionCount))
	}
	seen := make(map[string]struct{}, len(draft.Options))
	for _, opt := range draft.Options {
		text := strings.TrimSpace(opt)
		if text == "" {
			return invalid("options", "Poll option text is required")
		}
		if len(text) > MaxOptionLength {
			return invalid("options", fmt.Sprintf("Poll option must be at most %d characters", MaxOptionLength))
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			return invalid("options", "Duplicate poll options are not allowed")
		}
		seen[key] = struct{}{}
	}

	if draft.ExpiresAt != nil && !draft.ExpiresAt.After(now) {
		return invalid("expires_at", "Poll expiration date must be in the future")
	}

	if strings.TrimSpace(draft.CreatorID) == "" {
		return invalid("creator_id", "Creator ID is required")
	}
	return ValidateIdentifier("creator_id", draft.CreatorID)
}

// ValidateVoteDraft checks a vote payload before eligibility runs.
func ValidateVoteDraft(draft VoteDraft) error {
	if strings.TrimSpace(draft.PollID) == "" {
		return invalid("poll_id", "Poll ID is required")
	}
	if err := ValidateIdentifier("poll_id", draft.PollID); err != nil {
		return err
	}

	if len(draft.OptionIDs) == 0 {
		return invalid("option_ids", "Option ID is required")
	}
	for _, id := range draft.OptionIDs {
		if strings.TrimSpace(id) == "" {
			return invalid("option_ids", "Option ID is required")
		}
		if err := ValidateIdentifier("option_ids", id); err != nil {
			return err
		}
	}

	if strings.TrimSpace(draft.VoterID) == "" {
		return invalid("voter_id", "Voter ID is required")
	}
	return ValidateIdentifier("voter_id", draft.VoterID)
}

// ValidateIdentifier checks the shape of an entity identifier. Identifiers
// containing a hyphen must parse as UUIDs; plain numeric ids pass through
// untouched, since both id spaces are in use.
func ValidateIdentifier(field, id string) error {
	if !strings.Contains(id, "-") {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid(field, "Invalid UUID format")
	}
	return nil
}
