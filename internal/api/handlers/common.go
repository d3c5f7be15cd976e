package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poll-service/internal/domain"
	"poll-service/internal/models"
	"poll-service/internal/services"
)

// optionalUserID returns the authenticated user's id when the request
// carried a valid token, nil for guests.
func optionalUserID(c *gin.Context) *uint {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}

// requesterFrom builds the identity the authorization rules run on. For
// guests the id stays empty, which never matches a creator.
func requesterFrom(c *gin.Context) domain.Requester {
	req := domain.Requester{}
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			req.ID = models.FormatID(id)
		}
	}
	if role, exists := c.Get("role"); exists {
		req.IsAdmin = role == models.RoleAdmin
	}
	return req
}

// respondError translates service errors into HTTP status codes. Anything
// unmapped becomes a 500 with a generic body so internals never leak.
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: ve.Message,
			Details: ve.Field,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrInvalidOption),
		errors.Is(err, services.ErrTooManyOptions),
		errors.Is(err, services.ErrCommentTooDeep),
		errors.Is(err, services.ErrParentMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAnonymousNotAllowed):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrPollExpired),
		errors.Is(err, services.ErrPollInactive):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrPollNotFound),
		errors.Is(err, services.ErrOptionNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrUserAlreadyExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, models.ErrorResponse{
			Code:    status,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{
		Code:    status,
		Message: err.Error(),
	})
}
