package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educhain-labs/educhain-api/pkg/response"
)

type statementService interface {
	LedgerCSV(ctx context.Context, profileID string) ([]byte, string, error)
	LedgerPDF(ctx context.Context, profileID string) ([]byte, string, error)
	BadgeCertificate(ctx context.Context, badgeID string) ([]byte, string, error)
}

// StatementHandler exposes downloadable ledger statements and badge
// certificates.
type StatementHandler struct {
	service statementService
}

// NewStatementHandler builds a new handler.
func NewStatementHandler(service statementService) *StatementHandler {
	return &StatementHandler{service: service}
}

// LedgerCSV godoc
// @Summary Download the current profile's ledger as CSV
// @Tags Statements
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /ledger/statement.csv [get]
func (h *StatementHandler) LedgerCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	data, filename, err := h.service.LedgerCSV(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, data, filename, "text/csv")
}

// LedgerPDF godoc
// @Summary Download the current profile's ledger as PDF
// @Tags Statements
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Router /ledger/statement.pdf [get]
func (h *StatementHandler) LedgerPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	data, filename, err := h.service.LedgerPDF(c.Request.Context(), claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, data, filename, "application/pdf")
}

// BadgeCertificate godoc
// @Summary Download a badge certificate as PDF
// @Tags Statements
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Badge ID"
// @Success 200 {file} file
// @Router /badges/{id}/certificate [get]
func (h *StatementHandler) BadgeCertificate(c *gin.Context) {
	data, filename, err := h.service.BadgeCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, data, filename, "application/pdf")
}

func serveAttachment(c *gin.Context, data []byte, filename, mimeType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, data)
}
