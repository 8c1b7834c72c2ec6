package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/repository"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type mentorProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	SetMentor(ctx context.Context, id string) error
}

type mentorMetrics interface {
	CountMentorUpgrade()
}

// MentorGate defines the thresholds a student has to clear to become a
// mentor.
type MentorGate struct {
	MinRating         float64
	MinCompletedCount int
}

// MentorEligibility reports the gate check for one profile.
type MentorEligibility struct {
	ProfileID         string  `json:"profile_id"`
	Eligible          bool    `json:"eligible"`
	AlreadyMentor     bool    `json:"already_mentor"`
	Rating            float64 `json:"rating"`
	MinRating         float64 `json:"min_rating"`
	CompletedCount    int     `json:"completed_count"`
	MinCompletedCount int     `json:"min_completed_count"`
}

// MentorService handles the mentor upgrade path. Only students can become
// mentors; the gate is rating and completed-task thresholds, both config
// driven.
type MentorService struct {
	repo    mentorProfileRepository
	metrics mentorMetrics
	logger  *zap.Logger
	gate    MentorGate
}

// NewMentorService constructs the service.
func NewMentorService(repo mentorProfileRepository, logger *zap.Logger, gate MentorGate) *MentorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorService{repo: repo, logger: logger, gate: gate}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *MentorService) AttachMetrics(metrics mentorMetrics) {
	s.metrics = metrics
}

// Eligibility evaluates the mentor gate without changing anything.
func (s *MentorService) Eligibility(ctx context.Context, profileID string) (*MentorEligibility, error) {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can become mentors")
	}

	return &MentorEligibility{
		ProfileID:         profile.ID,
		Eligible:          s.passes(profile),
		AlreadyMentor:     profile.IsMentor,
		Rating:            profile.Rating,
		MinRating:         s.gate.MinRating,
		CompletedCount:    profile.CompletedCount,
		MinCompletedCount: s.gate.MinCompletedCount,
	}, nil
}

// Upgrade promotes an eligible student to mentor. The repository guard
// makes the FALSE -> TRUE flip idempotent under concurrent requests.
func (s *MentorService) Upgrade(ctx context.Context, profileID string) (*models.Profile, error) {
	eligibility, err := s.Eligibility(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if eligibility.AlreadyMentor {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "profile is already a mentor")
	}
	if !eligibility.Eligible {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "mentor requirements not met")
	}

	if err := s.repo.SetMentor(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "profile is already a mentor")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upgrade profile")
	}

	if s.metrics != nil {
		s.metrics.CountMentorUpgrade()
	}

	s.logger.Info("mentor upgraded", zap.String("profile_id", profileID))
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload profile")
	}
	return profile, nil
}

func (s *MentorService) passes(profile *models.Profile) bool {
	return profile.Rating >= s.gate.MinRating && profile.CompletedCount >= s.gate.MinCompletedCount
}
