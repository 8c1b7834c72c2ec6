package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type voteRepoStub struct {
	existing *models.Vote
	created  []*models.Vote
	deleted  []*models.Vote
	switched []models.VoteType
}

func (s *voteRepoStub) FindByVoterAndTarget(ctx context.Context, voterID, targetID string) (*models.Vote, error) {
	if s.existing == nil {
		return nil, sql.ErrNoRows
	}
	return s.existing, nil
}

func (s *voteRepoStub) CreateWithDelta(ctx context.Context, vote *models.Vote) error {
	vote.ID = "vote-1"
	s.created = append(s.created, vote)
	return nil
}

func (s *voteRepoStub) DeleteWithDelta(ctx context.Context, vote *models.Vote) error {
	s.deleted = append(s.deleted, vote)
	return nil
}

func (s *voteRepoStub) SwitchWithDelta(ctx context.Context, vote *models.Vote, newType models.VoteType) error {
	s.switched = append(s.switched, newType)
	return nil
}

type voteProfileStub struct {
	profiles map[string]*models.Profile
}

func (s voteProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func newVoteFixture(existing *models.Vote) (*VoteService, *voteRepoStub) {
	votes := &voteRepoStub{existing: existing}
	profiles := voteProfileStub{profiles: map[string]*models.Profile{
		"target-1": {ID: "target-1", Role: models.RoleStudent},
	}}
	return NewVoteService(votes, profiles, zap.NewNop()), votes
}

func TestVoteServiceCastCreates(t *testing.T) {
	svc, votes := newVoteFixture(nil)

	result, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "target-1", Type: models.VoteTypeUp, VoterID: "voter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VoteActionCreated, result.Action)
	require.NotNil(t, result.Vote)
	assert.Len(t, votes.created, 1)
}

func TestVoteServiceCastSameTypeRetracts(t *testing.T) {
	existing := &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp}
	svc, votes := newVoteFixture(existing)

	result, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "target-1", Type: models.VoteTypeUp, VoterID: "voter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VoteActionRemoved, result.Action)
	assert.Nil(t, result.Vote)
	assert.Len(t, votes.deleted, 1)
}

func TestVoteServiceCastOppositeTypeSwitches(t *testing.T) {
	existing := &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp}
	svc, votes := newVoteFixture(existing)

	result, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "target-1", Type: models.VoteTypeDown, VoterID: "voter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VoteActionSwitched, result.Action)
	require.NotNil(t, result.Vote)
	assert.Equal(t, models.VoteTypeDown, result.Vote.Type)
	require.Len(t, votes.switched, 1)
	assert.Equal(t, models.VoteTypeDown, votes.switched[0])
}

func TestVoteServiceCastRejectsSelfVote(t *testing.T) {
	svc, _ := newVoteFixture(nil)

	_, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "voter-1", Type: models.VoteTypeUp, VoterID: "voter-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSelfVote.Code, appErrors.FromError(err).Code)
}

func TestVoteServiceCastRejectsUnknownTarget(t *testing.T) {
	svc, _ := newVoteFixture(nil)

	_, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "ghost", Type: models.VoteTypeUp, VoterID: "voter-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
