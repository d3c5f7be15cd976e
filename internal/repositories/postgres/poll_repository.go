package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"poll-service/internal/domain"
	"poll-service/internal/models"
)

type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	FindByID(ctx context.Context, id uint) (*models.Poll, error)
	List(ctx context.Context, query models.PollListQuery, now time.Time) ([]models.Poll, int64, error)
	UpdateDetails(ctx context.Context, poll *models.Poll) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	FindOption(ctx context.Context, optionID uint) (*models.PollOption, error)
	SetOptionImage(ctx context.Context, optionID uint, url string) error
	OptionCounts(ctx context.Context, pollID uint) ([]domain.OptionCount, error)
}

type pollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

// Create stores the poll and its options in one transaction so a poll can
// never exist without its options.
func (r *pollRepository) Create(ctx context.Context, poll *models.Poll) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(poll).Error; err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}
		return nil
	})
}

func (r *pollRepository) FindByID(ctx context.Context, id uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("poll_options.position ASC, poll_options.id ASC")
		}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&poll).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) List(ctx context.Context, query models.PollListQuery, now time.Time) ([]models.Poll, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Poll{}).
		Where("polls.deleted_at IS NULL AND is_private = false")

	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	if query.CreatorID != 0 {
		db = db.Where("creator_id = ?", query.CreatorID)
	}
	if !query.IncludeExpired {
		db = db.Where("expires_at IS NULL OR expires_at > ?", now)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}

	var polls []models.Poll
	err := db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("poll_options.position ASC, poll_options.id ASC")
		}).
		Order("created_at DESC").
		Offset(query.Skip).
		Limit(query.Limit).
		Find(&polls).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, total, nil
}

func (r *pollRepository) UpdateDetails(ctx context.Context, poll *models.Poll) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE polls
		SET title = $1, description = $2, category = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	result, err := tx.Exec(query, poll.Title, poll.Description, poll.Category, time.Now(), poll.ID)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *pollRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Poll{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update poll state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft-deletes the poll together with its options, votes and
// comments so nothing dangles in listings or tallies.
func (r *pollRepository) Delete(ctx context.Context, id uint) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`UPDATE polls SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}

	for _, stmt := range []string{
		`UPDATE poll_options SET deleted_at = $1 WHERE poll_id = $2 AND deleted_at IS NULL`,
		`UPDATE votes SET deleted_at = $1 WHERE poll_id = $2 AND deleted_at IS NULL`,
		`UPDATE comments SET deleted_at = $1 WHERE poll_id = $2 AND deleted_at IS NULL`,
	} {
		if _, err := tx.Exec(stmt, now, id); err != nil {
			return fmt.Errorf("failed to cascade poll delete: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *pollRepository) FindOption(ctx context.Context, optionID uint) (*models.PollOption, error) {
	var option models.PollOption
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", optionID).First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

func (r *pollRepository) SetOptionImage(ctx context.Context, optionID uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.PollOption{}).
		Where("id = ? AND deleted_at IS NULL", optionID).
		UpdateColumn("image_url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to set option image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// OptionCounts loads the raw counts the tally runs on, in submitted order.
func (r *pollRepository) OptionCounts(ctx context.Context, pollID uint) ([]domain.OptionCount, error) {
	var options []models.PollOption
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND deleted_at IS NULL", pollID).
		Order("position ASC, id ASC").
		Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load option counts: %w", err)
	}

	counts := make([]domain.OptionCount, len(options))
	for i, opt := range options {
		counts[i] = domain.OptionCount{
			OptionID: opt.PublicID(),
			Text:     opt.Text,
			Votes:    opt.VoteCount,
		}
	}
	return counts, nil
}
