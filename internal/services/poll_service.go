package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
	"poll-service/internal/repositories/postgres"
)

// Custom errors
var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrNotAuthorized  = errors.New("not authorized")
)

// OptionImageStore uploads an option illustration and returns its public
// URL.
type OptionImageStore interface {
	UploadOptionImage(ctx context.Context, pollID uint, file *multipart.FileHeader) (string, error)
}

type PollService struct {
	pollRepo postgres.PollRepository
	images   OptionImageStore
}

func NewPollService(pollRepo postgres.PollRepository, images OptionImageStore) *PollService {
	return &PollService{
		pollRepo: pollRepo,
		images:   images,
	}
}

// Create validates the payload and stores the poll with its options.
func (s *PollService) Create(ctx context.Context, creatorID uint, req *models.CreatePollRequest) (*models.PollResponse, error) {
	now := time.Now()

	draft := domain.PollDraft{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		CreatorID:   models.FormatID(creatorID),
		ExpiresAt:   req.ExpiresAt,
	}
	if err := domain.ValidatePollDraft(draft, now); err != nil {
		return nil, err
	}

	options := make([]models.PollOption, len(req.Options))
	for i, text := range req.Options {
		options[i] = models.PollOption{
			Text:     strings.TrimSpace(text),
			Position: i,
		}
	}

	poll := models.Poll{
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Category:       strings.TrimSpace(req.Category),
		CreatorID:      creatorID,
		IsActive:       true,
		IsPrivate:      req.IsPrivate,
		AllowMultiple:  req.AllowMultiple,
		AllowAnonymous: req.AllowAnonymous,
		ExpiresAt:      req.ExpiresAt,
	}
	poll.Options = options

	if err := s.pollRepo.Create(ctx, &poll); err != nil {
		return nil, err
	}

	log.Printf("✅ Poll created - ID: %d, Title: %q, Options: %d", poll.ID, poll.Title, len(poll.Options))

	resp := models.NewPollResponse(&poll, now)
	return &resp, nil
}

// GetByID loads one poll, applying the visibility rule for private polls.
func (s *PollService) GetByID(ctx context.Context, pollID uint, by domain.Requester) (*models.PollResponse, error) {
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

	resp := models.NewPollResponse(poll, time.Now())
	return &resp, nil
}

// List returns one page of the public listing.
func (s *PollService) List(ctx context.Context, query models.PollListQuery) (*models.PollListResponse, error) {
	if query.Limit <= 0 {
		query.Limit = 10
	}
	if query.Limit > 100 {
		query.Limit = 100
	}
	if query.Skip < 0 {
		query.Skip = 0
	}

	now := time.Now()
	polls, total, err := s.pollRepo.List(ctx, query, now)
	if err != nil {
		return nil, err
	}

	responses := make([]models.PollResponse, len(polls))
	for i := range polls {
		responses[i] = models.NewPollResponse(&polls[i], now)
	}

	return &models.PollListResponse{
		Polls: responses,
		Total: total,
		Skip:  query.Skip,
		Limit: query.Limit,
	}, nil
}

// Update changes title, description or category. Only the creator may edit
// a poll.
func (s *PollService) Update(ctx context.Context, pollID, userID uint, req *models.UpdatePollRequest) (*models.PollResponse, error) {
	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	if poll.CreatorID != userID {
		return nil, ErrNotAuthorized
	}

	if req.Title != nil {
		if err := domain.ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
		poll.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		poll.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		poll.Category = strings.TrimSpace(*req.Category)
	}

	if err := s.pollRepo.UpdateDetails(ctx, poll); err != nil {
		return nil, err
	}

	resp := models.NewPollResponse(poll, time.Now())
	return &resp, nil
}

// Close deactivates the poll. The state is terminal for voting; results
// stay readable.
func (s *PollService) Close(ctx context.Context, pollID, userID uint) error {
	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		return err
	}

	if poll.CreatorID != userID {
		return ErrNotAuthorized
	}

	return s.pollRepo.SetActive(ctx, pollID, false)
}

// Delete removes the poll with its options, votes and comments. Allowed
// for the creator and for admins.
func (s *PollService) Delete(ctx context.Context, pollID uint, by domain.Requester) error {
	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		return err
	}

	if models.FormatID(poll.CreatorID) != by.ID && !by.IsAdmin {
		return ErrNotAuthorized
	}

	if err := s.pollRepo.Delete(ctx, pollID); err != nil {
		return err
	}

	log.Printf("🗑️ Poll deleted - ID: %d, by: %s", pollID, by.ID)
	return nil
}

// AttachOptionImage uploads an illustration for one option and stores its
// URL. Only the poll creator may do this.
func (s *PollService) AttachOptionImage(ctx context.Context, pollID, optionID, userID uint, file *multipart.FileHeader) (string, error) {
	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPollNotFound
		}
		return "", err
	}

	if poll.CreatorID != userID {
		return "", ErrNotAuthorized
	}

	option, err := s.pollRepo.FindOption(ctx, optionID)
	if err != nil || option.PollID != pollID {
		return "", ErrOptionNotFound
	}

	if s.images == nil {
		return "", errors.New("image storage is not configured")
	}

	url, err := s.images.UploadOptionImage(ctx, pollID, file)
	if err != nil {
		return "", err
	}

	if err := s.pollRepo.SetOptionImage(ctx, optionID, url); err != nil {
		return "", err
	}
	return url, nil
}
