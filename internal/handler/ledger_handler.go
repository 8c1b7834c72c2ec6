package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/pkg/response"
)

type ledgerService interface {
	List(ctx context.Context, profileID string, page, pageSize int) ([]models.TokenTransaction, *models.Pagination, error)
	Balance(ctx context.Context, profileID string) (decimal.Decimal, error)
	Audit(ctx context.Context, profileID string) (*models.BalanceAudit, error)
}

// LedgerHandler exposes the token ledger endpoints.
type LedgerHandler struct {
	service ledgerService
}

// NewLedgerHandler builds a new handler.
func NewLedgerHandler(service ledgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// List godoc
// @Summary List the current profile's token transactions
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /ledger [get]
func (h *LedgerHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, pagination, err := h.service.List(c.Request.Context(), claims.ProfileID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Balance godoc
// @Summary Show the current profile's token balance
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /ledger/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	claims := claimsFromContext(c)
	balance, err := h.service.Balance(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"balance": balance}, nil)
}

// Audit godoc
// @Summary Compare the stored balance against the ledger sum
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /ledger/audit [get]
func (h *LedgerHandler) Audit(c *gin.Context) {
	claims := claimsFromContext(c)
	audit, err := h.service.Audit(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audit, nil)
}
