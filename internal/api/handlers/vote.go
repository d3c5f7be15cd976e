package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"poll-service/internal/models"
	"poll-service/internal/services"
)

type VoteHandler struct {
	voteService  *services.VoteService
	tallyService *services.TallyService
}

func NewVoteHandler(voteService *services.VoteService, tallyService *services.TallyService) *VoteHandler {
	return &VoteHandler{
		voteService:  voteService,
		tallyService: tallyService,
	}
}

// CastVote godoc
// @Summary Cast a vote
// @Description Submit a ballot for one poll. Signed-in voters are identified by their account, anonymous voters by a salted hash of their address on polls that allow it. One ballot per voter per poll.
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Poll ID"
// @Param request body models.CastVoteRequest true "Selected option ids"
// @Success 201 {object} models.CastVoteResponse "Vote recorded"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid selection"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - poll requires a signed-in voter"
// @Failure 403 {object} models.ErrorResponse "Forbidden - poll expired or closed"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Failure 409 {object} models.ErrorResponse "Conflict - already voted"
// @Router /polls/{id}/vote [post]
func (h *VoteHandler) CastVote(c *gin.Context) {
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	requester := requesterFrom(c)
	receipt, err := h.voteService.Cast(c.Request.Context(), uint(pollID), optionalUserID(c), requester.IsAdmin, c.ClientIP(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// GetResults godoc
// @Summary Get poll results
// @Description Get the aggregated tally for one poll. Options keep their submitted order unless sort=votes is given. Results stay readable after the poll closes.
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Poll ID"
// @Param sort query string false "Set to 'votes' to order options by vote count descending"
// @Success 200 {object} models.PollResultsResponse "Aggregated results"
// @Failure 403 {object} models.ErrorResponse "Forbidden - private poll"
// @Failure 404 {object} models.ErrorResponse "Poll not found"
// @Router /polls/{id}/results [get]
func (h *VoteHandler) GetResults(c *gin.Context) {
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	sortByVotes := c.Query("sort") == "votes"

	results, err := h.tallyService.Results(c.Request.Context(), uint(pollID), requesterFrom(c), sortByVotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetMyBallot godoc
// @Summary Check own ballot
// @Description Report whether the caller has already voted on this poll
// @Tags votes
// @Accept json
// @Produce json
// @Param id path int true "Poll ID"
// @Success 200 {object} map[string]bool "Ballot status"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /polls/{id}/vote [get]
func (h *VoteHandler) GetMyBallot(c *gin.Context) {
	pollID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	voted, err := h.voteService.HasVoted(c.Request.Context(), uint(pollID), optionalUserID(c), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hasVoted": voted})
}
