package models

import (
	"time"

	"gorm.io/gorm"

	"poll-service/internal/domain"
)

// Poll status constants, derived from the active flag and expiry rather
// than stored
const (
	PollStatusOpen        = "open"
	PollStatusClosed      = "closed"
	PollStatusDeactivated = "deactivated"
)

/** --------------------ENTITIES-------------------- */
// Poll represents a question with a fixed set of options open for voting
type Poll struct {
	gorm.Model
	Title          string `gorm:"not null" json:"title"`                            // Question shown to voters
	Description    string `gorm:"type:text" json:"description,omitempty"`           // Optional longer form context
	Category       string `gorm:"type:varchar(50);index" json:"category,omitempty"`
	CreatorID      uint   `gorm:"not null;index" json:"creatorId"`                  // ID of the poll owner
	IsActive       bool   `gorm:"not null;default:true" json:"isActive"`            // Cleared when the creator closes the poll
	IsPrivate      bool   `gorm:"not null;default:false" json:"isPrivate"`          // Private polls are visible to the creator and admins only
	AllowMultiple  bool   `gorm:"not null;default:false" json:"allowMultiple"`      // Whether one ballot may select several options
	AllowAnonymous bool   `gorm:"not null;default:false" json:"allowAnonymous"`     // Whether votes without a signed-in user are accepted
	// ExpiresAt is optional; once passed the poll no longer accepts votes
	// but stays readable.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	Creator User         `gorm:"foreignKey:CreatorID" json:"-"`
	Options []PollOption `gorm:"constraint:OnDelete:CASCADE" json:"options"`
}

// Status derives the lifecycle state at the given instant.
func (p *Poll) Status(now time.Time) string {
	if !p.IsActive {
		return PollStatusDeactivated
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return PollStatusClosed
	}
	return PollStatusOpen
}

// Snapshot flattens the poll into the value the eligibility rules run on.
func (p *Poll) Snapshot() domain.PollSnapshot {
	optionIDs := make([]string, len(p.Options))
	for i, opt := range p.Options {
		optionIDs[i] = opt.PublicID()
	}
	return domain.PollSnapshot{
		ID:            FormatID(p.ID),
		CreatorID:     FormatID(p.CreatorID),
		OptionIDs:     optionIDs,
		IsActive:      p.IsActive,
		IsPrivate:     p.IsPrivate,
		AllowMultiple: p.AllowMultiple,
		ExpiresAt:     p.ExpiresAt,
	}
}

// PollOption represents one selectable choice within a poll
type PollOption struct {
	gorm.Model
	PollID   uint   `gorm:"not null;index" json:"pollId"`
	Text     string `gorm:"not null;type:varchar(100)" json:"text"`
	Position int    `gorm:"not null;default:0" json:"position"` // Submitted order, used for stable result ordering
	ImageURL string `json:"imageUrl,omitempty"`                 // Optional illustration stored in object storage
	// VoteCount is denormalized and updated in the same transaction as the
	// vote rows.
	VoteCount int64 `gorm:"not null;default:0" json:"voteCount"`
}

// PublicID returns the option id in the string shape used at the API
// boundary.
func (o *PollOption) PublicID() string {
	return FormatID(o.ID)
}

/** -------------------- DTOs -------------------- */
// Request
type CreatePollRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty" binding:"omitempty,max=50"`
	Options        []string   `json:"options"`
	IsPrivate      bool       `json:"isPrivate"`
	AllowMultiple  bool       `json:"allowMultiple"`
	AllowAnonymous bool       `json:"allowAnonymous"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

type UpdatePollRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty" binding:"omitempty,max=50"`
}

// PollListQuery carries the listing filters from the query string. Paging
// values are clamped by the service, not rejected.
type PollListQuery struct {
	Skip           int    `form:"skip,default=0"`
	Limit          int    `form:"limit,default=10"`
	Category       string `form:"category"`
	CreatorID      uint   `form:"creator_id"`
	IncludeExpired bool   `form:"include_expired"`
}

// Response
type PollOptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	ImageURL  string `json:"imageUrl,omitempty"`
	VoteCount int64  `json:"voteCount"`
}

type PollResponse struct {
	ID             uint                 `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	Category       string               `json:"category,omitempty"`
	CreatorID      uint                 `json:"creatorId"`
	Status         string               `json:"status"`
	IsActive       bool                 `json:"isActive"`
	IsPrivate      bool                 `json:"isPrivate"`
	AllowMultiple  bool                 `json:"allowMultiple"`
	AllowAnonymous bool                 `json:"allowAnonymous"`
	TotalVotes     int64                `json:"totalVotes"`
	CreatedAt      time.Time            `json:"createdAt"`
	ExpiresAt      *time.Time           `json:"expiresAt,omitempty"`
	Options        []PollOptionResponse `json:"options"`
}

// PollListResponse represents one page of the public poll listing
type PollListResponse struct {
	Polls []PollResponse `json:"polls"`
	Total int64          `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// PollResultsResponse is the aggregated results payload
type PollResultsResponse struct {
	PollID     uint                 `json:"pollId"`
	Status     string               `json:"status"`
	TotalVotes int64                `json:"totalVotes"`
	Options    []domain.OptionShare `json:"options"`
}

// NewPollResponse builds the response shape for one poll at the given
// instant.
func NewPollResponse(poll *Poll, now time.Time) PollResponse {
	options := make([]PollOptionResponse, len(poll.Options))
	var total int64
	for i, opt := range poll.Options {
		options[i] = PollOptionResponse{
			ID:        opt.ID,
			Text:      opt.Text,
			Position:  opt.Position,
			ImageURL:  opt.ImageURL,
			VoteCount: opt.VoteCount,
		}
		total += opt.VoteCount
	}
	return PollResponse{
		ID:             poll.ID,
		Title:          poll.Title,
		Description:    poll.Description,
		Category:       poll.Category,
		CreatorID:      poll.CreatorID,
		Status:         poll.Status(now),
		IsActive:       poll.IsActive,
		IsPrivate:      poll.IsPrivate,
		AllowMultiple:  poll.AllowMultiple,
		AllowAnonymous: poll.AllowAnonymous,
		TotalVotes:     total,
		CreatedAt:      poll.CreatedAt,
		ExpiresAt:      poll.ExpiresAt,
		Options:        options,
	}
}
