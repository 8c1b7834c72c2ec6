package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error)
	Submit(ctx context.Context, enrollmentID, studentID, fileName string, file io.Reader) (*models.Enrollment, error)
	Get(ctx context.Context, enrollmentID, requesterID string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
}

// EnrollmentHandler exposes enrollment and submission endpoints.
type EnrollmentHandler struct {
	service     enrollmentService
	maxFileSize int64
}

// NewEnrollmentHandler builds a new handler.
func NewEnrollmentHandler(service enrollmentService, maxFileSize int64) *EnrollmentHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &EnrollmentHandler{service: service, maxFileSize: maxFileSize}
}

type enrollRequest struct {
	HomeworkID string `json:"homework_id" binding:"required"`
}

// Enroll godoc
// @Summary Enroll the authenticated student in a homework
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body enrollRequest true "Homework reference"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), req.HomeworkID, claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Submit godoc
// @Summary Submit work for an enrollment
// @Tags Enrollments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param file formData file true "Submission file"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/submit [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing submission file"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	enrollment, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims.ProfileID, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Get godoc
// @Summary Get an enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	enrollment, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param homework_id query string false "Homework filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	filter := models.EnrollmentFilter{
		HomeworkID: c.Query("homework_id"),
		Status:     models.EnrollmentStatus(c.Query("status")),
	}
	// Students only ever see their own enrollments.
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.ProfileID
	} else {
		filter.StudentID = c.Query("student_id")
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}
