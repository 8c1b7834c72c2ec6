package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/jobs"
)

type badgeRepository interface {
	Create(ctx context.Context, badge *models.Badge) error
	FindByID(ctx context.Context, id string) (*models.Badge, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.Badge, error)
	UpdateMintStatus(ctx context.Context, id string, status models.BadgeMintStatus, tokenURI *string) error
}

type badgeProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type mintQueue interface {
	Enqueue(job jobs.Job) error
}

type badgeMetrics interface {
	CountBadgeMint(status string)
}

// BadgeService handles achievement badges. Awarding writes the row
// immediately; the NFT mint is queued and runs asynchronously, so a chain
// outage never blocks the award.
type BadgeService struct {
	badges    badgeRepository
	profiles  badgeProfileRepository
	queue     mintQueue
	metrics   badgeMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBadgeService constructs the service.
func NewBadgeService(badges badgeRepository, profiles badgeProfileRepository, queue mintQueue, validate *validator.Validate, logger *zap.Logger) *BadgeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{badges: badges, profiles: profiles, queue: queue, validator: validate, logger: logger}
}

// AttachQueue wires the mint queue after construction. The queue is built
// from this service's MintHandler, so it cannot exist before the service.
func (s *BadgeService) AttachQueue(queue mintQueue) {
	s.queue = queue
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *BadgeService) AttachMetrics(metrics badgeMetrics) {
	s.metrics = metrics
}

// AwardBadgeRequest describes a badge award. AwardedBy comes from token
// claims and must be a teacher.
type AwardBadgeRequest struct {
	ProfileID string  `json:"profile_id" validate:"required"`
	Kind      string  `json:"kind" validate:"required,max=64"`
	Title     string  `json:"title" validate:"required,min=3,max=200"`
	ImageURL  *string `json:"image_url" validate:"omitempty,url"`
	AwardedBy string  `json:"-" validate:"required"`
}

// MintJobPayload is carried on the mint queue.
type MintJobPayload struct {
	BadgeID string
}

// Award grants a badge to a profile and queues the NFT mint.
func (s *BadgeService) Award(ctx context.Context, req AwardBadgeRequest) (*models.Badge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid badge payload")
	}

	awarder, err := s.profiles.FindByID(ctx, req.AwardedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load awarder")
	}
	if awarder.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can award badges")
	}
	if _, err := s.profiles.FindByID(ctx, req.ProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}

	badge := &models.Badge{
		ProfileID: req.ProfileID,
		Kind:      req.Kind,
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		AwardedBy: req.AwardedBy,
	}
	if err := s.badges.Create(ctx, badge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create badge")
	}

	if s.queue != nil {
		job := jobs.Job{ID: badge.ID, Type: "badge_mint", Payload: MintJobPayload{BadgeID: badge.ID}}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to queue badge mint", zap.String("badge_id", badge.ID), zap.Error(err))
		}
	}

	s.logger.Info("badge awarded",
		zap.String("badge_id", badge.ID),
		zap.String("profile_id", badge.ProfileID),
		zap.String("kind", badge.Kind))
	return badge, nil
}

// ListByProfile returns the badges of a profile.
func (s *BadgeService) ListByProfile(ctx context.Context, profileID string) ([]models.Badge, error) {
	badges, err := s.badges.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list badges")
	}
	return badges, nil
}

// MintHandler returns the queue handler that resolves a badge's mint.
//
// TODO: call the chain gateway and mint the ERC-721 once the client is
// available; until then every badge resolves to SKIPPED with a metadata
// URI so the award stays usable.
func (s *BadgeService) MintHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(MintJobPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		badge, err := s.badges.FindByID(ctx, payload.BadgeID)
		if err != nil {
			return fmt.Errorf("load badge %s: %w", payload.BadgeID, err)
		}
		if badge.MintStatus != models.BadgeMintPending {
			return nil
		}

		tokenURI := fmt.Sprintf("educhain://badges/%s/metadata", badge.ID)
		if err := s.badges.UpdateMintStatus(ctx, badge.ID, models.BadgeMintSkipped, &tokenURI); err != nil {
			return fmt.Errorf("resolve badge mint %s: %w", badge.ID, err)
		}
		if s.metrics != nil {
			s.metrics.CountBadgeMint(string(models.BadgeMintSkipped))
		}
		s.logger.Info("badge mint resolved",
			zap.String("badge_id", badge.ID),
			zap.String("status", string(models.BadgeMintSkipped)))
		return nil
	}
}
