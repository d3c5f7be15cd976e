package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
	"poll-service/internal/repositories/postgres"
)

// Custom errors, one per eligibility denial so handlers can render an
// accurate message.
var (
	ErrPollExpired         = errors.New("poll has expired")
	ErrPollInactive        = errors.New("poll is no longer active")
	ErrTooManyOptions      = errors.New("too many options selected")
	ErrInvalidOption       = errors.New("option does not belong to this poll")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrAnonymousNotAllowed = errors.New("poll requires a signed-in voter")
)

// VoteEventPublisher hands committed ballots to the tally pipeline.
type VoteEventPublisher interface {
	Publish(event models.VoteEvent) error
}

type VoteService struct {
	pollRepo   postgres.PollRepository
	voteRepo   postgres.VoteRepository
	events     VoteEventPublisher
	cache      *RedisService
	ipHashSalt string
}

func NewVoteService(pollRepo postgres.PollRepository, voteRepo postgres.VoteRepository, events VoteEventPublisher, cache *RedisService, ipHashSalt string) *VoteService {
	return &VoteService{
		pollRepo:   pollRepo,
		voteRepo:   voteRepo,
		events:     events,
		cache:      cache,
		ipHashSalt: ipHashSalt,
	}
}

// VoterKey derives the uniqueness identity for a ballot: the user id for
// signed-in voters, a salted hash of the client address for anonymous
// ones. Raw addresses are never stored.
func (s *VoteService) VoterKey(userID *uint, clientIP string) string {
	if userID != nil {
		return fmt.Sprintf("u:%d", *userID)
	}
	sum := sha256.Sum256([]byte(s.ipHashSalt + clientIP))
	return "ip:" + hex.EncodeToString(sum[:8])
}

// Cast runs the full voting pipeline: payload validation, eligibility,
// the transactional write, then the vote event. The unique index on the
// votes table stays authoritative for duplicates; the eligibility
// pre-check only catches the common case early.
func (s *VoteService) Cast(ctx context.Context, pollID uint, userID *uint, isAdmin bool, clientIP string, req *models.CastVoteRequest) (*models.CastVoteResponse, error) {
	voterKey := s.VoterKey(userID, clientIP)

	draft := domain.VoteDraft{
		PollID:    models.FormatID(pollID),
		OptionIDs: req.OptionIDs,
		VoterID:   voterKey,
	}
	if err := domain.ValidateVoteDraft(draft); err != nil {
		return nil, err
	}

	poll, err := s.pollRepo.FindByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}

	if userID == nil && !poll.AllowAnonymous {
		return nil, ErrAnonymousNotAllowed
	}

	requester := domain.Requester{ID: voterKey, IsAdmin: isAdmin}
	if userID != nil {
		requester.ID = models.FormatID(*userID)
	}

	hasVoted, err := s.voteRepo.HasVoted(ctx, pollID, voterKey)
	if err != nil {
		return nil, err
	}

	decision := domain.CheckVote(poll.Snapshot(), requester, req.OptionIDs, hasVoted, time.Now())
	if !decision.Allowed() {
		return nil, decisionError(decision)
	}

	// Selections are valid poll options by now, so they parse as ids.
	// Repeats within one ballot collapse to a single selection.
	optionIDs := make([]uint, 0, len(req.OptionIDs))
	seen := make(map[uint]struct{}, len(req.OptionIDs))
	for _, raw := range req.OptionIDs {
		id, ok := models.ParseID(raw)
		if !ok {
			return nil, ErrInvalidOption
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		optionIDs = append(optionIDs, id)
	}

	votes := make([]models.Vote, len(optionIDs))
	for i, optionID := range optionIDs {
		votes[i] = models.Vote{
			PollID:   pollID,
			OptionID: optionID,
			VoterID:  userID,
			VoterKey: voterKey,
			Multi:    poll.AllowMultiple,
		}
	}

	if err := s.voteRepo.Cast(ctx, votes); err != nil {
		if errors.Is(err, postgres.ErrDuplicateVote) {
			// The constraint fired despite the pre-check, likely a
			// concurrent ballot. The database wins.
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	castAt := time.Now()

	if s.events != nil {
		event := models.VoteEvent{
			PollID:    pollID,
			OptionIDs: optionIDs,
			Anonymous: userID == nil,
			CastAt:    castAt,
		}
		if err := s.events.Publish(event); err != nil {
			// The ballot is committed; a lost event only delays the live
			// tally until the next recompute.
			slog.Error("Vote recorded but event publish failed", "pollID", pollID, "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateTally(ctx, pollID); err != nil {
			slog.Warn("Failed to invalidate tally cache after vote", "pollID", pollID, "error", err)
		}
	}

	return &models.CastVoteResponse{
		PollID:    pollID,
		OptionIDs: optionIDs,
		Anonymous: userID == nil,
		CastAt:    castAt,
	}, nil
}

// HasVoted reports whether the voter identity already holds a ballot on
// the poll.
func (s *VoteService) HasVoted(ctx context.Context, pollID uint, userID *uint, clientIP string) (bool, error) {
	return s.voteRepo.HasVoted(ctx, pollID, s.VoterKey(userID, clientIP))
}

func decisionError(d domain.Decision) error {
	switch d {
	case domain.DecisionDenyExpired:
		return ErrPollExpired
	case domain.DecisionDenyInactive:
		return ErrPollInactive
	case domain.DecisionDenyUnauthorized:
		return ErrNotAuthorized
	case domain.DecisionDenyTooManyOptions:
		return ErrTooManyOptions
	case domain.DecisionDenyInvalidOption:
		return ErrInvalidOption
	case domain.DecisionDenyDuplicate:
		return ErrAlreadyVoted
	default:
		return fmt.Errorf("unexpected eligibility decision: %s", d)
	}
}
