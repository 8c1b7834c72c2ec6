package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/internal/middleware"
	"github.com/educhain-labs/educhain-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.WalletClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.WalletClaims)
	if !ok {
		return nil
	}
	return claims
}
