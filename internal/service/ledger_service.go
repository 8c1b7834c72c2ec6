package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type ledgerRepository interface {
	ListByProfile(ctx context.Context, profileID string, page, pageSize int) ([]models.TokenTransaction, int, error)
	SumByProfile(ctx context.Context, profileID string) (decimal.Decimal, error)
}

type ledgerProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// LedgerService exposes the token transaction history and balance checks.
// The ledger itself is written only by the domain operations that earn or
// spend tokens; this service is read-only.
type LedgerService struct {
	ledger   ledgerRepository
	profiles ledgerProfileRepository
	logger   *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(ledger ledgerRepository, profiles ledgerProfileRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{ledger: ledger, profiles: profiles, logger: logger}
}

// List returns the profile's ledger entries with pagination.
func (s *LedgerService) List(ctx context.Context, profileID string, page, pageSize int) ([]models.TokenTransaction, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	entries, total, err := s.ledger.ListByProfile(ctx, profileID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger entries")
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return entries, pagination, nil
}

// Balance returns the stored token balance of a profile.
func (s *LedgerService) Balance(ctx context.Context, profileID string) (decimal.Decimal, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile.TokenBalance, nil
}

// Audit recomputes the ledger sum and compares it against the stored
// balance. A mismatch means a write bypassed the ledger invariant.
func (s *LedgerService) Audit(ctx context.Context, profileID string) (*models.BalanceAudit, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	sum, err := s.ledger.SumByProfile(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum ledger")
	}

	audit := &models.BalanceAudit{
		ProfileID:  profileID,
		Balance:    profile.TokenBalance,
		LedgerSum:  sum,
		Consistent: profile.TokenBalance.Equal(sum),
	}
	if !audit.Consistent {
		s.logger.Warn("ledger balance mismatch",
			zap.String("profile_id", profileID),
			zap.String("balance", audit.Balance.String()),
			zap.String("ledger_sum", audit.LedgerSum.String()))
	}
	return audit, nil
}
