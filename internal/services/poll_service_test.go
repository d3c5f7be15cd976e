package services

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poll-service/internal/domain"
	"poll-service/internal/models"
)

// mockImageStore stands in for object storage
type mockImageStore struct {
	url     string
	err     error
	uploads int
}

func (m *mockImageStore) UploadOptionImage(ctx context.Context, pollID uint, file *multipart.FileHeader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads++
	return m.url, nil
}

func TestCreatePoll(t *testing.T) {
	pollRepo := newMockPollRepo()
	svc := NewPollService(pollRepo, &mockImageStore{})

	resp, err := svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Title:       "  Favorite language?  ",
		Description: "Pick one",
		Category:    "tech",
		Options:     []string{"Go", "Rust", "Zig"},
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Favorite language?", resp.Title)
	assert.Equal(t, uint(42), resp.CreatorID)
	assert.Equal(t, models.PollStatusOpen, resp.Status)
	assert.Zero(t, resp.TotalVotes)

	// Options keep their submitted order
	require.Len(t, resp.Options, 3)
	for i, text := range []string{"Go", "Rust", "Zig"} {
		assert.Equal(t, text, resp.Options[i].Text)
		assert.Equal(t, i, resp.Options[i].Position)
	}
}

func TestCreatePoll_TitleRules(t *testing.T) {
	svc := NewPollService(newMockPollRepo(), &mockImageStore{})

	// Missing title
	_, err := svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Options: []string{"Go", "Rust"},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Poll title is required", verr.Message)

	// One character is below the minimum
	_, err = svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Title:   "A",
		Options: []string{"Go", "Rust"},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Poll title must be at least 3 characters", verr.Message)
}

func TestCreatePoll_OptionRules(t *testing.T) {
	svc := NewPollService(newMockPollRepo(), &mockImageStore{})
	var verr *domain.ValidationError

	// A poll needs a real choice
	_, err := svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Title:   "Favorite language?",
		Options: []string{"Go"},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Poll must have at least 2 options", verr.Message)

	// Duplicates are rejected regardless of case
	_, err = svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Title:   "Favorite language?",
		Options: []string{"Go", "go"},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Duplicate poll options are not allowed", verr.Message)
}

func TestCreatePoll_PastExpiry(t *testing.T) {
	svc := NewPollService(newMockPollRepo(), &mockImageStore{})

	past := time.Now().Add(-time.Minute)
	_, err := svc.Create(context.Background(), 42, &models.CreatePollRequest{
		Title:     "Favorite language?",
		Options:   []string{"Go", "Rust"},
		ExpiresAt: &past,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Poll expiration date must be in the future", verr.Message)
}

func TestGetPoll_Visibility(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	poll.IsPrivate = true
	pollRepo := newMockPollRepo(poll)
	svc := NewPollService(pollRepo, &mockImageStore{})

	// Strangers cannot see a private poll
	_, err := svc.GetByID(context.Background(), 1, domain.Requester{ID: "7"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The creator can
	resp, err := svc.GetByID(context.Background(), 1, domain.Requester{ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), resp.ID)

	// Admins can
	_, err = svc.GetByID(context.Background(), 1, domain.Requester{ID: "7", IsAdmin: true})
	assert.NoError(t, err)

	// Unknown polls are reported as missing
	_, err = svc.GetByID(context.Background(), 99, domain.Requester{ID: "42"})
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestListPolls_ClampsPaging(t *testing.T) {
	pollRepo := newMockPollRepo()
	pollRepo.listTotal = 0
	svc := NewPollService(pollRepo, &mockImageStore{})

	_, err := svc.List(context.Background(), models.PollListQuery{Skip: -5, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, pollRepo.listQuery.Skip)
	assert.Equal(t, 10, pollRepo.listQuery.Limit)

	_, err = svc.List(context.Background(), models.PollListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, pollRepo.listQuery.Limit)
}

func TestUpdatePoll(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	pollRepo := newMockPollRepo(poll)
	svc := NewPollService(pollRepo, &mockImageStore{})

	// Only the creator may edit
	title := "Best language?"
	_, err := svc.Update(context.Background(), 1, 7, &models.UpdatePollRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// A rename obeys the title rules
	short := "A"
	_, err = svc.Update(context.Background(), 1, 42, &models.UpdatePollRequest{Title: &short})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Poll title must be at least 3 characters", verr.Message)

	// A valid rename sticks; untouched fields survive
	resp, err := svc.Update(context.Background(), 1, 42, &models.UpdatePollRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Best language?", resp.Title)
	assert.Len(t, resp.Options, 2)
}

func TestClosePoll(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	pollRepo := newMockPollRepo(poll)
	svc := NewPollService(pollRepo, &mockImageStore{})

	err := svc.Close(context.Background(), 1, 7)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = svc.Close(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.False(t, poll.IsActive)
	assert.Equal(t, models.PollStatusDeactivated, poll.Status(time.Now()))
}

func TestDeletePoll(t *testing.T) {
	pollRepo := newMockPollRepo(
		newVotablePoll(1, 42, "Go", "Rust"),
		newVotablePoll(2, 42, "Tea", "Coffee"),
	)
	svc := NewPollService(pollRepo, &mockImageStore{})

	// Strangers may not delete
	err := svc.Delete(context.Background(), 1, domain.Requester{ID: "7"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The creator may
	err = svc.Delete(context.Background(), 1, domain.Requester{ID: "42"})
	require.NoError(t, err)

	// An admin may delete any poll
	err = svc.Delete(context.Background(), 2, domain.Requester{ID: "7", IsAdmin: true})
	require.NoError(t, err)

	assert.Equal(t, []uint{1, 2}, pollRepo.deleted)
}

func TestAttachOptionImage(t *testing.T) {
	pollRepo := newMockPollRepo(
		newVotablePoll(1, 42, "Go", "Rust"),
		newVotablePoll(2, 42, "Tea", "Coffee"),
	)
	store := &mockImageStore{url: "http://minio.local/polls/1/options/a.png"}
	svc := NewPollService(pollRepo, store)

	// Only the creator may attach images
	_, err := svc.AttachOptionImage(context.Background(), 1, 101, 7, nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The option must belong to the poll
	_, err = svc.AttachOptionImage(context.Background(), 1, 201, 42, nil)
	assert.ErrorIs(t, err, ErrOptionNotFound)

	// Happy path stores the URL on the option
	url, err := svc.AttachOptionImage(context.Background(), 1, 101, 42, nil)
	require.NoError(t, err)
	assert.Equal(t, store.url, url)
	assert.Equal(t, store.url, pollRepo.optionURLs[101])
	assert.Equal(t, 1, store.uploads)
}
