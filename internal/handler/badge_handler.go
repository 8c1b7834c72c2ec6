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

type badgeService interface {
	Award(ctx context.Context, req service.AwardBadgeRequest) (*models.Badge, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.Badge, error)
}

// BadgeHandler exposes the badge endpoints.
type BadgeHandler struct {
	service badgeService
}

// NewBadgeHandler builds a new handler.
func NewBadgeHandler(service badgeService) *BadgeHandler {
	return &BadgeHandler{service: service}
}

// Award godoc
// @Summary Award a badge to a profile and queue its mint
// @Tags Badges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AwardBadgeRequest true "Badge payload"
// @Success 201 {object} response.Envelope
// @Router /badges [post]
func (h *BadgeHandler) Award(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.AwardBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid badge payload"))
		return
	}
	req.AwardedBy = claims.ProfileID

	badge, err := h.service.Award(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, badge)
}

// ListByProfile godoc
// @Summary List badges awarded to a profile
// @Tags Badges
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id}/badges [get]
func (h *BadgeHandler) ListByProfile(c *gin.Context) {
	badges, err := h.service.ListByProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}
