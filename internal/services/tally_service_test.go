package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poll-service/internal/domain"
	"poll-service/internal/models"
)

func TestResults_DistributesPercentages(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust", "Zig")
	pollRepo := newMockPollRepo(poll)
	pollRepo.counts[1] = []domain.OptionCount{
		{OptionID: "101", Text: "Go", Votes: 5},
		{OptionID: "102", Text: "Rust", Votes: 8},
		{OptionID: "103", Text: "Zig", Votes: 3},
	}
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	resp, err := svc.Results(context.Background(), 1, domain.Requester{ID: "7"}, false)
	require.NoError(t, err)
	assert.Equal(t, uint(1), resp.PollID)
	assert.Equal(t, models.PollStatusOpen, resp.Status)
	assert.Equal(t, int64(16), resp.TotalVotes)

	require.Len(t, resp.Options, 3)
	assert.Equal(t, 31.3, resp.Options[0].Percentage)
	assert.Equal(t, 50.0, resp.Options[1].Percentage)
	assert.Equal(t, 18.8, resp.Options[2].Percentage)
}

func TestResults_ZeroVotes(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	pollRepo := newMockPollRepo(poll)
	pollRepo.counts[1] = []domain.OptionCount{
		{OptionID: "101", Text: "Go", Votes: 0},
		{OptionID: "102", Text: "Rust", Votes: 0},
	}
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	resp, err := svc.Results(context.Background(), 1, domain.Requester{ID: "7"}, false)
	require.NoError(t, err)
	assert.Zero(t, resp.TotalVotes)
	for _, option := range resp.Options {
		assert.Equal(t, 0.0, option.Percentage)
	}
}

func TestResults_SortByVotes(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust", "Zig", "C")
	pollRepo := newMockPollRepo(poll)
	pollRepo.counts[1] = []domain.OptionCount{
		{OptionID: "101", Text: "Go", Votes: 3},
		{OptionID: "102", Text: "Rust", Votes: 8},
		{OptionID: "103", Text: "Zig", Votes: 3},
		{OptionID: "104", Text: "C", Votes: 5},
	}
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	resp, err := svc.Results(context.Background(), 1, domain.Requester{ID: "7"}, true)
	require.NoError(t, err)

	// Descending by votes; the tied options keep their submitted order
	ids := make([]string, len(resp.Options))
	for i, option := range resp.Options {
		ids[i] = option.OptionID
	}
	assert.Equal(t, []string{"102", "104", "101", "103"}, ids)
}

func TestResults_ExpiredPollStaysReadable(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	poll := newVotablePoll(1, 42, "Go", "Rust")
	poll.ExpiresAt = &expired
	pollRepo := newMockPollRepo(poll)
	pollRepo.counts[1] = []domain.OptionCount{
		{OptionID: "101", Text: "Go", Votes: 2},
		{OptionID: "102", Text: "Rust", Votes: 1},
	}
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	resp, err := svc.Results(context.Background(), 1, domain.Requester{ID: "7"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusClosed, resp.Status)
	assert.Equal(t, int64(3), resp.TotalVotes)
}

func TestResults_PrivatePollDenied(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	poll.IsPrivate = true
	pollRepo := newMockPollRepo(poll)
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	_, err := svc.Results(context.Background(), 1, domain.Requester{ID: "7"}, false)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Results(context.Background(), 1, domain.Requester{ID: "42"}, false)
	assert.NoError(t, err)
}

func TestResults_PollNotFound(t *testing.T) {
	svc := NewTallyService(newMockPollRepo(), nil, 30*time.Second)

	_, err := svc.Results(context.Background(), 99, domain.Requester{ID: "7"}, false)
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestRecompute(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	pollRepo := newMockPollRepo(poll)
	pollRepo.counts[1] = []domain.OptionCount{
		{OptionID: "101", Text: "Go", Votes: 7},
		{OptionID: "102", Text: "Rust", Votes: 3},
	}
	svc := NewTallyService(pollRepo, nil, 30*time.Second)

	event, err := svc.Recompute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), event.PollID)
	assert.Equal(t, int64(10), event.TotalVotes)
	assert.NotZero(t, event.UpdatedAt)

	require.Len(t, event.Options, 2)
	assert.Equal(t, 70.0, event.Options[0].Percentage)
	assert.Equal(t, 30.0, event.Options[1].Percentage)
}
