package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"poll-service/internal/models"
	"poll-service/internal/services"
)

type PollHandler struct {
	pollService *services.PollService
}

func NewPollHandler(pollService *services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

// CreatePoll godoc
// @Summary Create a new poll
// @Description Create a poll with a title and at least two distinct options
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePollRequest true "Poll data"
// @Success 201 {object} models.PollResponse "Poll created successfully"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid poll data"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /polls [post]
func (h *PollHandler) CreatePoll(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req models.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	poll, err := h.pollService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, poll)
}

// ListPolls godoc
// @Summary List polls
// @Description Get one page of public polls, newest first. Filters by category and creator are optional.
// @Tags polls
// @Accept json
// @Produce json
// @Param skip query int false "Number of polls to skip" default(0)
// @Param limit query int false "Page size, capped at 100" default(10)
// @Param category query string false "Filter by category"
// @Param creator_id query int false "Filter by creator"
// @Param include_expired query bool false "Include polls past their expiry"
// @Success 200 {object} models.PollListResponse "One page of polls"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /polls [get]
func (h *PollHandler) ListPolls(c *gin.Context) {
	var query models.PollListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	page, err := h.pollService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetPoll godoc
// @Summary Get poll by ID
// @Description Get one poll with its options. Private polls are visible to their creator and admins only.
// @Tags polls
// @Accept json
// @Produce json
// @Param id path int true "Poll ID"
// @Success 200 {object} models.PollResponse "Poll details"
// @Failure 403 {object} models.ErrorResponse "Forbidden - private poll"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id} [get]
func (h *PollHandler) GetPoll(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	poll, err := h.pollService.GetByID(c.Request.Context(), uint(id), requesterFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, poll)
}

// UpdatePoll godoc
// @Summary Update poll
// @Description Update the title, description or category of a poll. Only the creator may edit.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param request body models.UpdatePollRequest true "Fields to update"
// @Success 200 {object} models.PollResponse "Poll updated successfully"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid poll data"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the creator"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id} [put]
func (h *PollHandler) UpdatePoll(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var req models.UpdatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	poll, err := h.pollService.Update(c.Request.Context(), uint(id), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, poll)
}

// ClosePoll godoc
// @Summary Close poll
// @Description Deactivate a poll so it stops accepting votes. Results stay readable.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} map[string]string "Poll closed successfully"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the creator"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id}/close [post]
func (h *PollHandler) ClosePoll(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	if err := h.pollService.Close(c.Request.Context(), uint(id), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Poll closed"})
}

// DeletePoll godoc
// @Summary Delete poll
// @Description Delete a poll with its options, votes and comments. Allowed for the creator and admins.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} map[string]string "Poll deleted successfully"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the creator or an admin"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id} [delete]
func (h *PollHandler) DeletePoll(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	if err := h.pollService.Delete(c.Request.Context(), uint(id), requesterFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted"})
}

// UploadOptionImage godoc
// @Summary Upload option image
// @Description Attach an illustration to one poll option. Only the poll creator may upload.
// @Tags polls
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param optionId path int true "Option ID"
// @Param image formData file true "Image file"
// @Success 200 {object} map[string]string "Image stored, returns its public URL"
// @Failure 400 {object} models.ErrorResponse "Bad request - missing image file"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 403 {object} models.ErrorResponse "Forbidden - not the creator"
// @Failure 404 {object} models.ErrorResponse "Poll or option not found"
// @Router /polls/{id}/options/{optionId}/image [post]
func (h *PollHandler) UploadOptionImage(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	optionID, _ := strconv.ParseUint(c.Param("optionId"), 10, 64)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "image file is required",
			Details: err.Error(),
		})
		return
	}

	url, err := h.pollService.AttachOptionImage(c.Request.Context(), uint(pollID), uint(optionID), userID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
