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

type questionService interface {
	Ask(ctx context.Context, req service.AskQuestionRequest) (*models.Question, error)
	Answer(ctx context.Context, req service.AnswerQuestionRequest) (*models.Answer, error)
	ListByHomework(ctx context.Context, homeworkID string) ([]models.Question, error)
	ListAnswers(ctx context.Context, questionID string) ([]models.AnswerDetail, error)
}

// QuestionHandler exposes the Q&A endpoints.
type QuestionHandler struct {
	service questionService
}

// NewQuestionHandler builds a new handler.
func NewQuestionHandler(service questionService) *QuestionHandler {
	return &QuestionHandler{service: service}
}

// Ask godoc
// @Summary Post a question on a homework
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AskQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionHandler) Ask(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid question payload"))
		return
	}
	req.StudentID = claims.ProfileID

	question, err := h.service.Ask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// Answer godoc
// @Summary Answer a question
// @Tags Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param payload body service.AnswerQuestionRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Router /questions/{id}/answers [post]
func (h *QuestionHandler) Answer(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}
	req.QuestionID = c.Param("id")
	req.AnswererID = claims.ProfileID

	answer, err := h.service.Answer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, answer)
}

// ListByHomework godoc
// @Summary List questions asked on a homework
// @Tags Questions
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id}/questions [get]
func (h *QuestionHandler) ListByHomework(c *gin.Context) {
	questions, err := h.service.ListByHomework(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, nil)
}

// ListAnswers godoc
// @Summary List answers to a question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /questions/{id}/answers [get]
func (h *QuestionHandler) ListAnswers(c *gin.Context) {
	answers, err := h.service.ListAnswers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answers, nil)
}
