package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type leaderboardService interface {
	TopRated(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	TopUpvoted(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)
}

// LeaderboardHandler exposes the public leaderboard endpoints.
type LeaderboardHandler struct {
	service leaderboardService
}

// NewLeaderboardHandler builds a new handler.
func NewLeaderboardHandler(service leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// TopRated godoc
// @Summary List the best rated students
// @Tags Leaderboards
// @Produce json
// @Param limit query int false "Number of entries"
// @Success 200 {object} response.Envelope
// @Router /leaderboards/rated [get]
func (h *LeaderboardHandler) TopRated(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.service.TopRated(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// TopUpvoted godoc
// @Summary List the most upvoted profiles
// @Tags Leaderboards
// @Produce json
// @Param limit query int false "Number of entries"
// @Success 200 {object} response.Envelope
// @Router /leaderboards/upvoted [get]
func (h *LeaderboardHandler) TopUpvoted(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.service.TopUpvoted(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Stats godoc
// @Summary Show platform wide counters
// @Tags Leaderboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboards/stats [get]
func (h *LeaderboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
