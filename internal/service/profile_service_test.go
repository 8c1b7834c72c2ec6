package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type profileRepoStub struct {
	byWallet map[string]*models.Profile
	grants   []*models.TokenTransaction
	created  []*models.Profile
	deleted  []string
}

func (s *profileRepoStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	for _, p := range s.byWallet {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *profileRepoStub) FindByWallet(ctx context.Context, address string) (*models.Profile, error) {
	if p, ok := s.byWallet[address]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *profileRepoStub) ExistsByWallet(ctx context.Context, address string) (bool, error) {
	_, ok := s.byWallet[address]
	return ok, nil
}

func (s *profileRepoStub) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	return nil, 0, nil
}

func (s *profileRepoStub) CreateWithGrant(ctx context.Context, profile *models.Profile, grant *models.TokenTransaction) error {
	profile.ID = "prof-new"
	profile.TokenBalance = grant.Amount
	s.created = append(s.created, profile)
	s.grants = append(s.grants, grant)
	s.byWallet[profile.WalletAddress] = profile
	return nil
}

func (s *profileRepoStub) UpdateInfo(ctx context.Context, id, displayName string, avatarURL, bio *string) error {
	return nil
}

func (s *profileRepoStub) DeleteCascade(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newProfileFixture() (*ProfileService, *profileRepoStub) {
	repo := &profileRepoStub{byWallet: map[string]*models.Profile{}}
	bonuses := WelcomeBonuses{
		Teacher: decimal.NewFromInt(2),
		Student: decimal.NewFromInt(1),
	}
	return NewProfileService(repo, nil, zap.NewNop(), bonuses), repo
}

func TestProfileServiceOnboardGrantsTeacherBonus(t *testing.T) {
	svc, repo := newProfileFixture()

	profile, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet,
		DisplayName:   "Ms. Putri",
		Role:          "TEACHER",
	})
	require.NoError(t, err)
	assert.Equal(t, testWallet, profile.WalletAddress)
	assert.True(t, profile.TokenBalance.Equal(decimal.NewFromInt(2)))
	require.Len(t, repo.grants, 1)
	assert.Equal(t, models.TransactionTypeInitial, repo.grants[0].Type)
}

func TestProfileServiceOnboardGrantsStudentBonus(t *testing.T) {
	svc, repo := newProfileFixture()

	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet,
		DisplayName:   "Andi",
		Role:          "STUDENT",
	})
	require.NoError(t, err)
	require.Len(t, repo.grants, 1)
	assert.True(t, repo.grants[0].Amount.Equal(decimal.NewFromInt(1)))
}

func TestProfileServiceOnboardRejectsDuplicateWallet(t *testing.T) {
	svc, _ := newProfileFixture()

	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet, DisplayName: "Andi", Role: "STUDENT",
	})
	require.NoError(t, err)

	_, err = svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet, DisplayName: "Andi again", Role: "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceOnboardRejectsBadChecksum(t *testing.T) {
	svc, _ := newProfileFixture()

	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1Beaed",
		DisplayName:   "Andi",
		Role:          "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceOnboardRejectsUnknownRole(t *testing.T) {
	svc, _ := newProfileFixture()

	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet, DisplayName: "Andi", Role: "ADMIN",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceDeleteCascades(t *testing.T) {
	svc, repo := newProfileFixture()
	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet, DisplayName: "Andi", Role: "STUDENT",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "prof-new"))
	assert.Equal(t, []string{"prof-new"}, repo.deleted)
}
