package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

// MentorRole is accepted by RBAC next to the profile roles; it matches any
// claims with the mentor flag set.
const MentorRole = "MENTOR"

// SelfRole is accepted by RBAC; it matches when the :id path parameter
// equals the caller's profile ID.
const SelfRole = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.WalletClaims)

		allowSelf := false
		allowMentor := false
		allowedRoles := make(map[models.ProfileRole]struct{})

		for _, a := range allowed {
			switch a {
			case SelfRole:
				allowSelf = true
			case MentorRole:
				allowMentor = true
			default:
				allowedRoles[models.ProfileRole(a)] = struct{}{}
			}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		if allowMentor && claims.IsMentor {
			c.Next()
			return
		}
		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.ProfileID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
