package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/educhain-labs/educhain-api/internal/models"
)

func runRBAC(t *testing.T, claims *models.WalletClaims, allowed ...string) (int, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	reached := false
	RBAC(allowed...)(c)
	if !c.IsAborted() {
		reached = true
	}
	return w.Code, reached
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	_, reached := runRBAC(t, &models.WalletClaims{ProfileID: "p-1", Role: models.RoleTeacher}, string(models.RoleTeacher), MentorRole)
	assert.True(t, reached)
}

func TestRBACAllowsMentorFlag(t *testing.T) {
	_, reached := runRBAC(t, &models.WalletClaims{ProfileID: "p-1", Role: models.RoleStudent, IsMentor: true}, string(models.RoleTeacher), MentorRole)
	assert.True(t, reached)
}

func TestRBACRejectsPlainStudent(t *testing.T) {
	code, reached := runRBAC(t, &models.WalletClaims{ProfileID: "p-1", Role: models.RoleStudent}, string(models.RoleTeacher), MentorRole)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	code, reached := runRBAC(t, nil, string(models.RoleTeacher))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, code)
}
