package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Comment represents a threaded comment on a poll. ParentID is null for
// top-level comments; nesting is capped at three levels by the service.
type Comment struct {
	gorm.Model
	PollID   uint   `gorm:"not null;index" json:"pollId"`
	AuthorID uint   `gorm:"not null;index" json:"authorId"`
	ParentID *uint  `gorm:"index" json:"parentId,omitempty"`
	Content  string `gorm:"not null;type:text" json:"content"`
	Edited   bool   `gorm:"not null;default:false" json:"edited"` // Set once the author changes the content

	Author  User      `gorm:"foreignKey:AuthorID" json:"-"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required,max=2000"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// Response
type CommentResponse struct {
	ID        uint              `json:"id"`
	PollID    uint              `json:"pollId"`
	ParentID  *uint             `json:"parentId,omitempty"`
	Author    CommentAuthor     `json:"author"`
	Content   string            `json:"content"`
	Edited    bool              `json:"edited"`
	CreatedAt time.Time         `json:"createdAt"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

// CommentAuthor is the slim author shape embedded in comment responses
type CommentAuthor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}
