package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
)

// mockCommentRepo keeps comments in memory, newest last in insertion
// order, and resolves depth by walking the parent chain
type mockCommentRepo struct {
	comments map[uint]*models.Comment
	order    []uint
	nextID   uint
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[uint]*models.Comment), nextID: 1}
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = m.nextID
	m.nextID++
	comment.CreatedAt = time.Now()

	stored := *comment
	stored.Author = models.User{Username: fmt.Sprintf("user%d", stored.AuthorID)}
	stored.Author.ID = stored.AuthorID
	m.comments[stored.ID] = &stored
	m.order = append(m.order, stored.ID)
	return nil
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return comment, nil
}

func (m *mockCommentRepo) ListByPoll(ctx context.Context, pollID uint) ([]models.Comment, error) {
	// Newest first, matching the repository ordering
	var out []models.Comment
	for i := len(m.order) - 1; i >= 0; i-- {
		comment, ok := m.comments[m.order[i]]
		if ok && comment.PollID == pollID {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (m *mockCommentRepo) Depth(ctx context.Context, commentID uint) (int, error) {
	comment, ok := m.comments[commentID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	depth := 1
	for comment.ParentID != nil {
		comment, ok = m.comments[*comment.ParentID]
		if !ok {
			break
		}
		depth++
	}
	return depth, nil
}

func (m *mockCommentRepo) UpdateContent(ctx context.Context, id uint, content string) error {
	comment, ok := m.comments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	comment.Content = content
	comment.Edited = true
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.comments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.comments, id)
	return nil
}

func newCommentService(polls ...*models.Poll) (*CommentService, *mockCommentRepo) {
	commentRepo := newMockCommentRepo()
	return NewCommentService(commentRepo, newMockPollRepo(polls...)), commentRepo
}

func TestCreateComment(t *testing.T) {
	svc, _ := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	resp, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{
		Content: "Go all the way",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, uint(1), resp.PollID)
	assert.Equal(t, "Go all the way", resp.Content)
	assert.Equal(t, uint(7), resp.Author.ID)
	assert.Nil(t, resp.ParentID)
	assert.False(t, resp.Edited)
}

func TestCreateComment_PollMissing(t *testing.T) {
	svc, _ := newCommentService()

	_, err := svc.Create(context.Background(), 99, 7, &models.CreateCommentRequest{
		Content: "hello?",
	})
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestCreateComment_BlankContent(t *testing.T) {
	svc, _ := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	_, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{
		Content: "   ",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateComment_ReplyChainCap(t *testing.T) {
	svc, _ := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	// Build a chain down to the third level
	root, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "level 1"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, 8, &models.CreateCommentRequest{
		Content: "level 2", ParentID: &root.ID,
	})
	require.NoError(t, err)
	third, err := svc.Create(context.Background(), 1, 9, &models.CreateCommentRequest{
		Content: "level 3", ParentID: &second.ID,
	})
	require.NoError(t, err)

	// A fourth level is rejected
	_, err = svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{
		Content: "level 4", ParentID: &third.ID,
	})
	require.ErrorIs(t, err, ErrCommentTooDeep)
	assert.Equal(t, "Comment nesting is limited to 3 levels", err.Error())
}

func TestCreateComment_ParentFromAnotherPoll(t *testing.T) {
	svc, _ := newCommentService(
		newVotablePoll(1, 42, "Go", "Rust"),
		newVotablePoll(2, 42, "Tea", "Coffee"),
	)

	parent, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "on poll 1"})
	require.NoError(t, err)

	// Replying on poll 2 to a comment from poll 1 is refused
	_, err = svc.Create(context.Background(), 2, 7, &models.CreateCommentRequest{
		Content: "crossover", ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, ErrParentMismatch)
}

func TestListComments_Thread(t *testing.T) {
	svc, _ := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	first, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "first root"})
	require.NoError(t, err)
	reply, err := svc.Create(context.Background(), 1, 8, &models.CreateCommentRequest{
		Content: "reply", ParentID: &first.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, 9, &models.CreateCommentRequest{
		Content: "nested reply", ParentID: &reply.ID,
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "second root"})
	require.NoError(t, err)

	thread, err := svc.ListByPoll(context.Background(), 1, domain.Requester{ID: "7"})
	require.NoError(t, err)

	// Two roots, newest first
	require.Len(t, thread, 2)
	assert.Equal(t, second.ID, thread[0].ID)
	assert.Equal(t, first.ID, thread[1].ID)

	// The older root carries the full reply chain
	require.Len(t, thread[1].Replies, 1)
	assert.Equal(t, "reply", thread[1].Replies[0].Content)
	require.Len(t, thread[1].Replies[0].Replies, 1)
	assert.Equal(t, "nested reply", thread[1].Replies[0].Replies[0].Content)
}

func TestListComments_PrivatePoll(t *testing.T) {
	poll := newVotablePoll(1, 42, "Go", "Rust")
	poll.IsPrivate = true
	svc, _ := newCommentService(poll)

	_, err := svc.ListByPoll(context.Background(), 1, domain.Requester{ID: "7"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.ListByPoll(context.Background(), 1, domain.Requester{ID: "42"})
	assert.NoError(t, err)
}

func TestUpdateComment(t *testing.T) {
	svc, _ := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	created, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "orignal"})
	require.NoError(t, err)

	// Someone else may not edit it
	_, err = svc.Update(context.Background(), created.ID, 8, &models.UpdateCommentRequest{Content: "hijack"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The author may, and the edit is flagged
	updated, err := svc.Update(context.Background(), created.ID, 7, &models.UpdateCommentRequest{Content: "original"})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Content)
	assert.True(t, updated.Edited)
}

func TestDeleteComment(t *testing.T) {
	svc, commentRepo := newCommentService(newVotablePoll(1, 42, "Go", "Rust"))

	created, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "remove me"})
	require.NoError(t, err)

	// Strangers may not delete
	err = svc.Delete(context.Background(), created.ID, domain.Requester{ID: "8"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Admins may
	err = svc.Delete(context.Background(), created.ID, domain.Requester{ID: "8", IsAdmin: true})
	require.NoError(t, err)
	_, err = commentRepo.FindByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The author can delete their own
	mine, err := svc.Create(context.Background(), 1, 7, &models.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)
	err = svc.Delete(context.Background(), mine.ID, domain.Requester{ID: "7"})
	assert.NoError(t, err)
}
