package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/service"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type homeworkService interface {
	Create(ctx context.Context, req service.CreateHomeworkRequest) (*models.Homework, error)
	List(ctx context.Context, filter models.HomeworkFilter) ([]models.HomeworkDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.HomeworkDetail, error)
	Update(ctx context.Context, id, teacherID string, req service.UpdateHomeworkRequest) (*models.Homework, error)
	Delete(ctx context.Context, id, teacherID string) error
	AttachResource(ctx context.Context, homeworkID, teacherID, fileName, contentType string, size int64, file io.Reader) (*models.HomeworkResource, error)
	Resources(ctx context.Context, homeworkID string) ([]service.ResourceLink, error)
}

// HomeworkHandler exposes the task marketplace endpoints.
type HomeworkHandler struct {
	service     homeworkService
	maxFileSize int64
}

// NewHomeworkHandler builds a new handler.
func NewHomeworkHandler(service homeworkService, maxFileSize int64) *HomeworkHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &HomeworkHandler{service: service, maxFileSize: maxFileSize}
}

// Create godoc
// @Summary Publish a homework (spends tokens)
// @Tags Homeworks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid homework payload"))
		return
	}
	req.TeacherID = claims.ProfileID

	homework, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, homework)
}

// List godoc
// @Summary List homeworks
// @Tags Homeworks
// @Produce json
// @Param subject query string false "Subject filter"
// @Param search query string false "Title/description search"
// @Param open query bool false "Only homeworks with free seats"
// @Success 200 {object} response.Envelope
// @Router /homeworks [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	filter := models.HomeworkFilter{
		TeacherID: c.Query("teacher_id"),
		Subject:   c.Query("subject"),
		Search:    c.Query("search"),
		OpenOnly:  c.Query("open") == "true",
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	homeworks, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homeworks, pagination)
}

// Get godoc
// @Summary Get a homework
// @Tags Homeworks
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [get]
func (h *HomeworkHandler) Get(c *gin.Context) {
	homework, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homework, nil)
}

// Update godoc
// @Summary Update a homework
// @Tags Homeworks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Param payload body service.UpdateHomeworkRequest true "Homework payload"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [put]
func (h *HomeworkHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.UpdateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid homework payload"))
		return
	}
	homework, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.ProfileID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homework, nil)
}

// Delete godoc
// @Summary Delete a homework without enrollments
// @Tags Homeworks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Success 204
// @Router /homeworks/{id} [delete]
func (h *HomeworkHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.ProfileID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AttachResource godoc
// @Summary Upload a resource file for a homework
// @Tags Homeworks
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Param file formData file true "Resource file"
// @Success 201 {object} response.Envelope
// @Router /homeworks/{id}/resources [post]
func (h *HomeworkHandler) AttachResource(c *gin.Context) {
	claims := claimsFromContext(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing resource file"))
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

	resource, err := h.service.AttachResource(
		c.Request.Context(),
		c.Param("id"),
		claims.ProfileID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Resources godoc
// @Summary List signed download links for a homework's resources
// @Tags Homeworks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id}/resources [get]
func (h *HomeworkHandler) Resources(c *gin.Context) {
	links, err := h.service.Resources(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}
