package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/service"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type mentorService interface {
	Eligibility(ctx context.Context, profileID string) (*service.MentorEligibility, error)
	Upgrade(ctx context.Context, profileID string) (*models.Profile, error)
}

// MentorHandler exposes the mentor qualification endpoints.
type MentorHandler struct {
	service mentorService
}

// NewMentorHandler builds a new handler.
func NewMentorHandler(service mentorService) *MentorHandler {
	return &MentorHandler{service: service}
}

// Eligibility godoc
// @Summary Check whether the current student qualifies as a mentor
// @Tags Mentors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mentors/eligibility [get]
func (h *MentorHandler) Eligibility(c *gin.Context) {
	claims := claimsFromContext(c)
	eligibility, err := h.service.Eligibility(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}

// Upgrade godoc
// @Summary Upgrade the current student to mentor
// @Tags Mentors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mentors/upgrade [post]
func (h *MentorHandler) Upgrade(c *gin.Context) {
	claims := claimsFromContext(c)
	profile, err := h.service.Upgrade(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
