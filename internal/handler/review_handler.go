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

type reviewService interface {
	Create(ctx context.Context, req service.CreateReviewRequest) (*models.Review, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error)
	ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error)
}

// ReviewHandler exposes review endpoints.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler builds a new handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Create godoc
// @Summary Record a review for a submitted enrollment
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	req.ReviewerID = claims.ProfileID

	review, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// ListByStudent godoc
// @Summary List reviews received by a student
// @Tags Reviews
// @Produce json
// @Param id path string true "Student profile ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id}/reviews [get]
func (h *ReviewHandler) ListByStudent(c *gin.Context) {
	reviews, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// ListByHomework godoc
// @Summary List reviews given for a homework
// @Tags Reviews
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id}/reviews [get]
func (h *ReviewHandler) ListByHomework(c *gin.Context) {
	reviews, err := h.service.ListByHomework(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}
