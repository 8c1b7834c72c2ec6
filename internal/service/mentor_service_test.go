package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/repository"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type mentorRepoStub struct {
	profile      *models.Profile
	setMentorErr error
	upgraded     int
}

func (s *mentorRepoStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if s.profile == nil || s.profile.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.profile, nil
}

func (s *mentorRepoStub) SetMentor(ctx context.Context, id string) error {
	if s.setMentorErr != nil {
		return s.setMentorErr
	}
	s.upgraded++
	s.profile.IsMentor = true
	return nil
}

func newMentorFixture(profile *models.Profile) (*MentorService, *mentorRepoStub) {
	repo := &mentorRepoStub{profile: profile}
	gate := MentorGate{MinRating: 4.0, MinCompletedCount: 3}
	return NewMentorService(repo, zap.NewNop(), gate), repo
}

func TestMentorServiceUpgrade(t *testing.T) {
	svc, repo := newMentorFixture(&models.Profile{
		ID: "stu-1", Role: models.RoleStudent, Rating: 4.2, CompletedCount: 5,
	})

	profile, err := svc.Upgrade(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, profile.IsMentor)
	assert.Equal(t, 1, repo.upgraded)
}

func TestMentorServiceUpgradeRejectsBelowGate(t *testing.T) {
	cases := []struct {
		name    string
		profile models.Profile
	}{
		{"low rating", models.Profile{ID: "stu-1", Role: models.RoleStudent, Rating: 3.9, CompletedCount: 5}},
		{"few completions", models.Profile{ID: "stu-1", Role: models.RoleStudent, Rating: 4.5, CompletedCount: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := tc.profile
			svc, repo := newMentorFixture(&profile)

			_, err := svc.Upgrade(context.Background(), "stu-1")
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
			assert.Zero(t, repo.upgraded)
		})
	}
}

func TestMentorServiceUpgradeRejectsTeacher(t *testing.T) {
	svc, _ := newMentorFixture(&models.Profile{
		ID: "tch-1", Role: models.RoleTeacher, Rating: 5, CompletedCount: 10,
	})

	_, err := svc.Upgrade(context.Background(), "tch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMentorServiceUpgradeRejectsExistingMentor(t *testing.T) {
	svc, repo := newMentorFixture(&models.Profile{
		ID: "stu-1", Role: models.RoleStudent, Rating: 4.8, CompletedCount: 9, IsMentor: true,
	})

	_, err := svc.Upgrade(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.upgraded)
}

func TestMentorServiceUpgradeMapsLostRace(t *testing.T) {
	svc, _ := newMentorFixture(&models.Profile{
		ID: "stu-1", Role: models.RoleStudent, Rating: 4.8, CompletedCount: 9,
	})
	svc.repo.(*mentorRepoStub).setMentorErr = repository.ErrNoTransition

	_, err := svc.Upgrade(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestMentorServiceEligibilityReportsThresholds(t *testing.T) {
	svc, _ := newMentorFixture(&models.Profile{
		ID: "stu-1", Role: models.RoleStudent, Rating: 3.5, CompletedCount: 1,
	})

	eligibility, err := svc.Eligibility(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, eligibility.Eligible)
	assert.Equal(t, 4.0, eligibility.MinRating)
	assert.Equal(t, 3, eligibility.MinCompletedCount)
}
