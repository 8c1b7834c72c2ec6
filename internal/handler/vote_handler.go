package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/service"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type voteService interface {
	Cast(ctx context.Context, req service.CastVoteRequest) (*models.VoteResult, error)
	Mine(ctx context.Context, voterID, targetID string) (*models.Vote, error)
}

// VoteHandler exposes the community voting endpoint.
type VoteHandler struct {
	service voteService
}

// NewVoteHandler builds a new handler.
func NewVoteHandler(service voteService) *VoteHandler {
	return &VoteHandler{service: service}
}

// Cast godoc
// @Summary Cast, remove or switch a vote on a profile
// @Tags Votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CastVoteRequest true "Vote payload"
// @Success 200 {object} response.Envelope
// @Router /votes [post]
func (h *VoteHandler) Cast(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vote payload"))
		return
	}
	req.VoterID = claims.ProfileID

	result, err := h.service.Cast(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Mine godoc
// @Summary Show the caller's vote on a profile
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Target profile ID"
// @Success 200 {object} response.Envelope
// @Router /votes/{id} [get]
func (h *VoteHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	vote, err := h.service.Mine(c.Request.Context(), claims.ProfileID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vote, nil)
}
