package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func activePoll() PollSnapshot {
	return PollSnapshot{
		ID:        "10",
		CreatorID: "1",
		OptionIDs: []string{"100", "101", "102"},
		IsActive:  true,
	}
}

func TestCheckVote(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	t.Run("AllowsValidVote", func(t *testing.T) {
		poll := activePoll()
		poll.ExpiresAt = &tomorrow

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionAllowVote, decision)
		assert.True(t, decision.Allowed())
	})

	t.Run("DeniesExpiredPoll", func(t *testing.T) {
		poll := activePoll()
		poll.ExpiresAt = &yesterday

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionDenyExpired, decision)
	})

	t.Run("ExpiryAtExactDeadlineDenies", func(t *testing.T) {
		poll := activePoll()
		poll.ExpiresAt = &now

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionDenyExpired, decision)
	})

	t.Run("ExpiredWinsOverInactive", func(t *testing.T) {
		poll := activePoll()
		poll.IsActive = false
		poll.ExpiresAt = &yesterday

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionDenyExpired, decision)
	})

	t.Run("DeniesInactivePoll", func(t *testing.T) {
		poll := activePoll()
		poll.IsActive = false

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionDenyInactive, decision)
	})

	t.Run("PrivatePollDeniesStranger", func(t *testing.T) {
		poll := activePoll()
		poll.IsPrivate = true

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100"}, false, now)

		assert.Equal(t, DecisionDenyUnauthorized, decision)
	})

	t.Run("PrivatePollAllowsCreatorAndAdmin", func(t *testing.T) {
		poll := activePoll()
		poll.IsPrivate = true

		assert.Equal(t, DecisionAllowVote, CheckVote(poll, Requester{ID: "1"}, []string{"100"}, false, now))
		assert.Equal(t, DecisionAllowVote, CheckVote(poll, Requester{ID: "7", IsAdmin: true}, []string{"100"}, false, now))
	})

	t.Run("SingleChoiceRejectsTwoSelections", func(t *testing.T) {
		poll := activePoll()

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100", "101"}, false, now)

		assert.Equal(t, DecisionDenyTooManyOptions, decision)
	})

	t.Run("SelectionBoundBeatsOptionValidity", func(t *testing.T) {
		poll := activePoll()
		poll.AllowMultiple = true

		// Eleven selections, most of them unknown. The size bound has to
		// fire before option membership is even considered.
		selections := make([]string, MaxSelections+1)
		for i := range selections {
			selections[i] = fmt.Sprintf("bogus%d", i)
		}

		decision := CheckVote(poll, Requester{ID: "2"}, selections, false, now)

		assert.Equal(t, DecisionDenyTooManyOptions, decision)
	})

	t.Run("DeniesUnknownOption", func(t *testing.T) {
		poll := activePoll()

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"999"}, false, now)

		assert.Equal(t, DecisionDenyInvalidOption, decision)
	})

	t.Run("DuplicateVoteGuard", func(t *testing.T) {
		poll := activePoll()
		voter := Requester{ID: "2"}

		first := CheckVote(poll, voter, []string{"100"}, false, now)
		second := CheckVote(poll, voter, []string{"100"}, true, now)

		assert.Equal(t, DecisionAllowVote, first)
		assert.Equal(t, DecisionDenyDuplicate, second)
	})

	t.Run("MultiVotePollAllowsRepeatBallot", func(t *testing.T) {
		poll := activePoll()
		poll.AllowMultiple = true

		decision := CheckVote(poll, Requester{ID: "2"}, []string{"100", "102"}, true, now)

		assert.Equal(t, DecisionAllowVote, decision)
	})
}

func TestCanView(t *testing.T) {
	public := activePoll()
	assert.True(t, CanView(public, Requester{ID: "99"}))

	private := activePoll()
	private.IsPrivate = true
	assert.False(t, CanView(private, Requester{ID: "99"}))
	assert.True(t, CanView(private, Requester{ID: "1"}))
	assert.True(t, CanView(private, Requester{ID: "99", IsAdmin: true}))

	// Closed polls stay readable
	closed := activePoll()
	closed.IsActive = false
	assert.True(t, CanView(closed, Requester{ID: "99"}))
}
