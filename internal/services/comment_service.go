package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
	"poll-service/internal/repositories/postgres"
)

// Custom errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentTooDeep  = errors.New("Comment nesting is limited to 3 levels")
	ErrParentMismatch  = errors.New("parent comment belongs to another poll")
)

type CommentService struct {
	commentRepo postgres.CommentRepository
	pollRepo    postgres.PollRepository
}

func NewCommentService(commentRepo postgres.CommentRepository, pollRepo postgres.PollRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		pollRepo:    pollRepo,
	}
}

// Create posts a comment on a poll, optionally as a reply. Threads are
// capped at three levels.
func (s *CommentService) Create(ctx context.Context, pollID, authorID uint, req *models.CreateCommentRequest) (*models.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrInvalidRequest
	}

	if _, err := s.pollRepo.FindByID(ctx, pollID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.commentRepo.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, ErrCommentNotFound
		}
		if parent.PollID != pollID {
			return nil, ErrParentMismatch
		}

		depth, err := s.commentRepo.Depth(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if depth >= domain.MaxCommentDepth {
			return nil, ErrCommentTooDeep
		}
	}

	comment := models.Comment{
		PollID:   pollID,
		AuthorID: authorID,
		ParentID: req.ParentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, &comment); err != nil {
		return nil, err
	}

	// Reload with the author preloaded for the response
	created, err := s.commentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	resp := commentToResponse(created)
	return &resp, nil
}

// ListByPoll returns the poll's comments as a thread, newest roots first.
func (s *CommentService) ListByPoll(ctx context.Context, pollID uint, by domain.Requester) ([]models.CommentResponse, error) {
	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	if !domain.CanView(poll.Snapshot(), by) {
		return nil, ErrNotAuthorized
	}

	comments, err := s.commentRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	return assembleThread(comments), nil
}

// Update edits a comment's content. Only the author may edit; the edited
// flag is set permanently.
func (s *CommentService) Update(ctx context.Context, commentID, userID uint, req *models.UpdateCommentRequest) (*models.CommentResponse, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, ErrCommentNotFound
	}
	if comment.AuthorID != userID {
		return nil, ErrNotAuthorized
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrInvalidRequest
	}

	if err := s.commentRepo.UpdateContent(ctx, commentID, content); err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	resp := commentToResponse(updated)
	return &resp, nil
}

// Delete removes a comment. Allowed for the author and for admins.
func (s *CommentService) Delete(ctx context.Context, commentID uint, by domain.Requester) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return ErrCommentNotFound
	}

	if models.FormatID(comment.AuthorID) != by.ID && !by.IsAdmin {
		return ErrNotAuthorized
	}

	return s.commentRepo.Delete(ctx, commentID)
}

func commentToResponse(c *models.Comment) models.CommentResponse {
	return models.CommentResponse{
		ID:       c.ID,
		PollID:   c.PollID,
		ParentID: c.ParentID,
		Author: models.CommentAuthor{
			ID:       c.Author.ID,
			Username: c.Author.Username,
			Avatar:   c.Author.Avatar,
		},
		Content:   c.Content,
		Edited:    c.Edited,
		CreatedAt: c.CreatedAt,
	}
}

// assembleThread nests flat rows into a reply tree. Rows arrive newest
// first, so every reply is processed before its own parent and each
// subtree is complete by the time it is attached. Replies whose parent
// was deleted are dropped.
func assembleThread(comments []models.Comment) []models.CommentResponse {
	nodes := make(map[uint]*models.CommentResponse, len(comments))
	order := make([]uint, 0, len(comments))
	for i := range comments {
		resp := commentToResponse(&comments[i])
		nodes[resp.ID] = &resp
		order = append(order, resp.ID)
	}

	for _, id := range order {
		node := nodes[id]
		if node.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Replies = append(parent.Replies, *node)
		}
	}

	roots := make([]models.CommentResponse, 0, len(comments))
	for _, id := range order {
		node := nodes[id]
		if node.ParentID == nil {
			roots = append(roots, *node)
		}
	}
	return roots
}
