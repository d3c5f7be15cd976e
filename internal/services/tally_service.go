package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
	"poll-service/internal/repositories/postgres"
)

// TallyService computes aggregated results and keeps the per-poll cache
// and live subscribers in sync. Aggregation itself never fails: a poll
// with no votes reports zero percentages.
type TallyService struct {
	pollRepo postgres.PollRepository
	cache    *RedisService
	cacheTTL time.Duration
}

func NewTallyService(pollRepo postgres.PollRepository, cache *RedisService, cacheTTL time.Duration) *TallyService {
	return &TallyService{
		pollRepo: pollRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Results returns the current tally for one poll, serving from cache when
// it is warm. Sorting is applied after retrieval so cached entries keep
// the submitted option order.
func (s *TallyService) Results(ctx context.Context, pollID uint, by domain.Requester, sortByVotes bool) (*models.PollResultsResponse, error) {
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

	var tally domain.Tally
	cached := false
	if s.cache != nil {
		switch err := s.cache.GetCachedTally(ctx, pollID, &tally); {
		case err == nil:
			cached = true
		case errors.Is(err, redis.Nil):
			// Cold cache, fall through to a recompute.
		default:
			slog.Warn("Tally cache read failed", "pollID", pollID, "error", err)
		}
	}

	if !cached {
		counts, err := s.pollRepo.OptionCounts(ctx, pollID)
		if err != nil {
			return nil, err
		}
		tally = domain.ComputeTally(counts, false)

		if s.cache != nil {
			if err := s.cache.CacheTally(ctx, pollID, tally, s.cacheTTL); err != nil {
				slog.Warn("Tally cache write failed", "pollID", pollID, "error", err)
			}
		}
	}

	if sortByVotes {
		tally = tally.SortedByVotes()
	}

	return &models.PollResultsResponse{
		PollID:     pollID,
		Status:     poll.Status(time.Now()),
		TotalVotes: tally.TotalVotes,
		Options:    tally.Options,
	}, nil
}

// Recompute rebuilds the tally from storage, refreshes the cache and
// notifies live subscribers. The worker calls this once per consumed vote
// event.
func (s *TallyService) Recompute(ctx context.Context, pollID uint) (*models.TallyUpdateEvent, error) {
	counts, err := s.pollRepo.OptionCounts(ctx, pollID)
	if err != nil {
		return nil, err
	}

	tally := domain.ComputeTally(counts, false)
	event := &models.TallyUpdateEvent{
		PollID:     pollID,
		TotalVotes: tally.TotalVotes,
		Options:    tally.Options,
		UpdatedAt:  time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.CacheTally(ctx, pollID, tally, s.cacheTTL); err != nil {
			slog.Warn("Tally cache refresh failed", "pollID", pollID, "error", err)
		}
		if err := s.cache.PublishPollEvent(ctx, pollID, event); err != nil {
			slog.Warn("Tally update publish failed", "pollID", pollID, "error", err)
		}
	}

	return event, nil
}
