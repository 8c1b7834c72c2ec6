package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educhain-labs/educhain-api/internal/middleware"
	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/service"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type reviewServiceMock struct {
	createResp   *models.Review
	createErr    error
	listResp     []models.ReviewDetail
	listErr      error
	lastReq      service.CreateReviewRequest
	createCalled bool
	listCalled   bool
}

func (m *reviewServiceMock) Create(ctx context.Context, req service.CreateReviewRequest) (*models.Review, error) {
	m.createCalled = true
	m.lastReq = req
	return m.createResp, m.createErr
}

func (m *reviewServiceMock) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error) {
	m.listCalled = true
	return m.listResp, m.listErr
}

func (m *reviewServiceMock) ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error) {
	m.listCalled = true
	return m.listResp, m.listErr
}

func TestReviewHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{
		createResp: &models.Review{ID: "review-1", Stars: 5},
	}
	handler := NewReviewHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateReviewRequest{HomeworkID: "hw-1", StudentID: "student-1", Stars: 5})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.WalletClaims{ProfileID: "teacher-1", Role: models.RoleTeacher})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, "teacher-1", mockSvc.lastReq.ReviewerID)
}

func TestReviewHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(&reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewBufferString(`{"stars":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.WalletClaims{ProfileID: "teacher-1", Role: models.RoleTeacher})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerCreateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{
		createErr: appErrors.ErrDuplicate,
	}
	handler := NewReviewHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateReviewRequest{HomeworkID: "hw-1", StudentID: "student-1", Stars: 4})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.WalletClaims{ProfileID: "teacher-1", Role: models.RoleTeacher})

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, mockSvc.createCalled)
}

func TestReviewHandlerListByStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{
		listResp: []models.ReviewDetail{{Review: models.Review{ID: "review-1"}}},
	}
	handler := NewReviewHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/profiles/student-1/reviews", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "student-1"}}

	handler.ListByStudent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
}
