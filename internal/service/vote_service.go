package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type voteRepository interface {
	FindByVoterAndTarget(ctx context.Context, voterID, targetID string) (*models.Vote, error)
	CreateWithDelta(ctx context.Context, vote *models.Vote) error
	DeleteWithDelta(ctx context.Context, vote *models.Vote) error
	SwitchWithDelta(ctx context.Context, vote *models.Vote, newType models.VoteType) error
}

type voteProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type voteMetrics interface {
	CountVote(action string)
}

// VoteService handles community votes. Casting is a toggle: a fresh vote
// creates, the same type again retracts, the opposite type switches.
type VoteService struct {
	votes    voteRepository
	profiles voteProfileRepository
	metrics  voteMetrics
	logger   *zap.Logger
}

// NewVoteService constructs the service.
func NewVoteService(votes voteRepository, profiles voteProfileRepository, logger *zap.Logger) *VoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteService{votes: votes, profiles: profiles, logger: logger}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *VoteService) AttachMetrics(metrics voteMetrics) {
	s.metrics = metrics
}

func (s *VoteService) countVote(action models.VoteAction) {
	if s.metrics != nil {
		s.metrics.CountVote(string(action))
	}
}

// CastVoteRequest describes a vote cast. VoterID comes from token claims.
type CastVoteRequest struct {
	TargetID string          `json:"target_id"`
	Type     models.VoteType `json:"vote_type"`
	VoterID  string          `json:"-"`
}

// Cast applies a vote transition against the target profile.
func (s *VoteService) Cast(ctx context.Context, req CastVoteRequest) (*models.VoteResult, error) {
	if req.TargetID == "" || req.VoterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "voter and target are required")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "vote type must be UPVOTE or DOWNVOTE")
	}
	if req.VoterID == req.TargetID {
		return nil, appErrors.Clone(appErrors.ErrSelfVote, "cannot vote on your own profile")
	}

	if _, err := s.profiles.FindByID(ctx, req.TargetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target")
	}

	existing, err := s.votes.FindByVoterAndTarget(ctx, req.VoterID, req.TargetID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vote")
	}

	switch {
	case existing == nil:
		vote := &models.Vote{VoterID: req.VoterID, TargetID: req.TargetID, Type: req.Type}
		if err := s.votes.CreateWithDelta(ctx, vote); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create vote")
		}
		s.countVote(models.VoteActionCreated)
		return &models.VoteResult{Action: models.VoteActionCreated, Vote: vote}, nil

	case existing.Type == req.Type:
		if err := s.votes.DeleteWithDelta(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retract vote")
		}
		s.countVote(models.VoteActionRemoved)
		return &models.VoteResult{Action: models.VoteActionRemoved}, nil

	default:
		if err := s.votes.SwitchWithDelta(ctx, existing, req.Type); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to switch vote")
		}
		existing.Type = req.Type
		s.countVote(models.VoteActionSwitched)
		return &models.VoteResult{Action: models.VoteActionSwitched, Vote: existing}, nil
	}
}

// Mine returns the caller's vote on a target, or nil when none exists.
func (s *VoteService) Mine(ctx context.Context, voterID, targetID string) (*models.Vote, error) {
	vote, err := s.votes.FindByVoterAndTarget(ctx, voterID, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vote")
	}
	return vote, nil
}
