package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/wallet"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByWallet(ctx context.Context, address string) (*models.Profile, error)
	ExistsByWallet(ctx context.Context, address string) (bool, error)
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	CreateWithGrant(ctx context.Context, profile *models.Profile, grant *models.TokenTransaction) error
	UpdateInfo(ctx context.Context, id, displayName string, avatarURL, bio *string) error
	DeleteCascade(ctx context.Context, id string) error
}

type profileMetrics interface {
	CountLedgerWrite(txType string)
}

// WelcomeBonuses holds the one-time grants credited at onboarding.
type WelcomeBonuses struct {
	Teacher decimal.Decimal
	Student decimal.Decimal
}

// ProfileService handles onboarding and profile management. Every profile
// is identified by its wallet address; the role is fixed at onboarding and
// the welcome bonus is granted exactly once, atomically with the insert.
type ProfileService struct {
	repo      profileRepository
	metrics   profileMetrics
	validator *validator.Validate
	logger    *zap.Logger
	bonuses   WelcomeBonuses
}

// NewProfileService constructs the service.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger, bonuses WelcomeBonuses) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger, bonuses: bonuses}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *ProfileService) AttachMetrics(metrics profileMetrics) {
	s.metrics = metrics
}

// OnboardRequest describes the signup payload.
type OnboardRequest struct {
	WalletAddress string  `json:"wallet_address" validate:"required"`
	DisplayName   string  `json:"display_name" validate:"required,min=2,max=64"`
	Role          string  `json:"role" validate:"required,oneof=STUDENT TEACHER"`
	Bio           *string `json:"bio" validate:"omitempty,max=500"`
}

// UpdateProfileRequest describes the editable profile fields.
type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=2,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

// Onboard registers a wallet as a student or teacher profile and credits
// the role's welcome bonus in the same transaction.
func (s *ProfileService) Onboard(ctx context.Context, req OnboardRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid onboarding payload")
	}
	address, err := wallet.Normalize(req.WalletAddress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wallet address")
	}

	exists, err := s.repo.ExistsByWallet(ctx, address)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check wallet")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "wallet already onboarded")
	}

	role := models.ProfileRole(req.Role)
	bonus := s.bonuses.Student
	if role == models.RoleTeacher {
		bonus = s.bonuses.Teacher
	}

	profile := &models.Profile{
		WalletAddress: address,
		DisplayName:   req.DisplayName,
		Role:          role,
		Bio:           req.Bio,
	}
	grant := &models.TokenTransaction{
		Amount:      bonus,
		Type:        models.TransactionTypeInitial,
		Description: fmt.Sprintf("welcome bonus (%s)", role),
	}
	if err := s.repo.CreateWithGrant(ctx, profile, grant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}
	if s.metrics != nil {
		s.metrics.CountLedgerWrite(string(models.TransactionTypeInitial))
	}

	s.logger.Info("profile onboarded",
		zap.String("profile_id", profile.ID),
		zap.String("role", string(role)),
		zap.String("bonus", bonus.String()))
	return profile, nil
}

// Get returns a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// GetByWallet returns a profile by its wallet address.
func (s *ProfileService) GetByWallet(ctx context.Context, address string) (*models.Profile, error) {
	normalized, err := wallet.Normalize(address)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wallet address")
	}
	profile, err := s.repo.FindByWallet(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// List returns profiles matching the filter with pagination.
func (s *ProfileService) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return profiles, pagination, nil
}

// Update edits the profile's display fields. Only the owner reaches this
// path; ownership is enforced in the handler from the token claims.
func (s *ProfileService) Update(ctx context.Context, id string, req UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateInfo(ctx, id, req.DisplayName, req.AvatarURL, req.Bio); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return s.Get(ctx, id)
}

// Delete removes the profile with everything it owns: enrollments, votes,
// reviews, questions, answers, badges, sessions and the full ledger.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete profile")
	}
	s.logger.Info("profile deleted", zap.String("profile_id", id))
	return nil
}
