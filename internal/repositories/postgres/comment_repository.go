package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"poll-service/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPoll(ctx context.Context, pollID uint) ([]models.Comment, error)
	Depth(ctx context.Context, commentID uint) (int, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPoll returns every comment on the poll with its author, newest
// first. Thread assembly happens in the service.
func (r *commentRepository) ListByPoll(ctx context.Context, pollID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("poll_id = ? AND deleted_at IS NULL", pollID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Depth walks the parent chain of a comment and returns its level, where a
// top-level comment has depth 1.
func (r *commentRepository) Depth(ctx context.Context, commentID uint) (int, error) {
	sqlDB, err := r.db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get database connection: %w", err)
	}

	query := `
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id, 1 AS depth
			FROM comments
			WHERE id = $1 AND deleted_at IS NULL
			UNION ALL
			SELECT c.id, c.parent_id, a.depth + 1
			FROM comments c
			JOIN ancestors a ON c.id = a.parent_id
		)
		SELECT COALESCE(MAX(depth), 0) FROM ancestors
	`

	var depth int
	if err := sqlDB.QueryRowContext(ctx, query, commentID).Scan(&depth); err != nil {
		return 0, fmt.Errorf("failed to resolve comment depth: %w", err)
	}
	if depth == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return depth, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
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
		UPDATE comments
		SET content = $1, edited = true, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := tx.Exec(query, content, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
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

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
