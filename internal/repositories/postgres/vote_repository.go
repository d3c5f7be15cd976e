package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"poll-service/internal/models"
)

// ErrDuplicateVote surfaces a unique-constraint violation on the votes
// table. The constraint, not the pre-check, is the authoritative guard
// against double voting under concurrent submissions.
var ErrDuplicateVote = errors.New("duplicate vote")

type VoteRepository interface {
	Cast(ctx context.Context, votes []models.Vote) error
	HasVoted(ctx context.Context, pollID uint, voterKey string) (bool, error)
	CountForPoll(ctx context.Context, pollID uint) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Cast inserts the ballot's vote rows and bumps the denormalized option
// counters in one transaction. A unique-index violation rolls everything
// back and comes out as ErrDuplicateVote.
func (r *voteRepository) Cast(ctx context.Context, votes []models.Vote) error {
	if len(votes) == 0 {
		return errors.New("empty ballot")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range votes {
			if err := tx.Create(&votes[i]).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.PollOption{}).
				Where("id = ?", votes[i].OptionID).
				UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
				return fmt.Errorf("failed to bump option counter: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID uint, voterKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("poll_id = ? AND voter_key = ? AND deleted_at IS NULL", pollID, voterKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check prior vote: %w", err)
	}
	return count > 0, nil
}

func (r *voteRepository) CountForPoll(ctx context.Context, pollID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("poll_id = ? AND deleted_at IS NULL", pollID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a Postgres 23505 unique
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
