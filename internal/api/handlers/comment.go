package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"poll-service/internal/models"
	"poll-service/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateComment godoc
// @Summary Comment on a poll
// @Description Add a comment to a poll, optionally as a reply. Nesting is capped at three levels.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param request body models.CreateCommentRequest true "Comment content and optional parent id"
// @Success 201 {object} models.CommentResponse "Comment created"
// @Failure 400 {object} models.ErrorResponse "Bad request - empty content or nesting too deep"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 404 {object} models.ErrorResponse "Poll or parent comment not found"
// @Router /polls/{id}/comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), uint(pollID), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments godoc
// @Summary List poll comments
// @Description Get the comment thread for one poll, newest first, replies nested under their parents
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Poll ID"
// @Success 200 {array} models.CommentResponse "Comment thread"
// @Failure 403 {object} models.ErrorResponse "Forbidden - private poll"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	comments, err := h.commentService.ListByPoll(c.Request.Context(), uint(pollID), requesterFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// UpdateComment godoc
// @Summary Edit a comment
// @Description Change the content of an own comment. The comment is marked as edited.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body models.UpdateCommentRequest true "New content"
// @Success 200 {object} models.CommentResponse "Comment updated"
// @Failure 400 {object} models.ErrorResponse "Bad request - empty content"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the author"
// @Failure 404 {object} models.ErrorResponse "Comment not found"
// @Router /comments/{id} [put]
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	commentID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), uint(commentID), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Delete a comment. Allowed for the author and admins. Replies to the deleted comment disappear from the thread.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} map[string]string "Comment deleted"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the author or an admin"
// @Failure 404 {object} models.ErrorResponse "Comment not found"
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	if err := h.commentService.Delete(c.Request.Context(), uint(commentID), requesterFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
