package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/pkg/jobs"
)

type counterRecorderStub struct {
	ledgerWrites   []string
	reviews        int
	votes          []string
	mentorUpgrades int
	badgeMints     []string
}

func (s *counterRecorderStub) CountLedgerWrite(txType string) {
	s.ledgerWrites = append(s.ledgerWrites, txType)
}

func (s *counterRecorderStub) CountReview() {
	s.reviews++
}

func (s *counterRecorderStub) CountVote(action string) {
	s.votes = append(s.votes, action)
}

func (s *counterRecorderStub) CountMentorUpgrade() {
	s.mentorUpgrades++
}

func (s *counterRecorderStub) CountBadgeMint(status string) {
	s.badgeMints = append(s.badgeMints, status)
}

func TestProfileServiceOnboardCountsLedgerWrite(t *testing.T) {
	svc, _ := newProfileFixture()
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Onboard(context.Background(), OnboardRequest{
		WalletAddress: testWallet,
		DisplayName:   "Andi",
		Role:          "STUDENT",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"initial"}, counters.ledgerWrites)
}

func TestHomeworkServiceCreateCountsLedgerWrite(t *testing.T) {
	svc, _ := newHomeworkFixture()
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Create(context.Background(), CreateHomeworkRequest{
		Title:       "Fractions worksheet",
		Description: "Solve all ten problems",
		Subject:     "math",
		MaxStudents: 20,
		TeacherID:   "tch-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"spent"}, counters.ledgerWrites)
}

func TestReviewServiceCreateCountsReview(t *testing.T) {
	svc, _ := newReviewFixture(models.EnrollmentStatusCompleted)
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Create(context.Background(), CreateReviewRequest{
		HomeworkID: "hw-1",
		StudentID:  "stu-1",
		Stars:      4,
		ReviewerID: "tch-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counters.reviews)
}

func TestVoteServiceCastCountsEachTransition(t *testing.T) {
	cases := []struct {
		name     string
		existing *models.Vote
		cast     models.VoteType
		want     string
	}{
		{"fresh vote", nil, models.VoteTypeUp, "created"},
		{"same type retracts", &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp}, models.VoteTypeUp, "removed"},
		{"opposite type switches", &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp}, models.VoteTypeDown, "switched"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newVoteFixture(tc.existing)
			counters := &counterRecorderStub{}
			svc.AttachMetrics(counters)

			_, err := svc.Cast(context.Background(), CastVoteRequest{
				TargetID: "target-1", Type: tc.cast, VoterID: "voter-1",
			})
			require.NoError(t, err)
			assert.Equal(t, []string{tc.want}, counters.votes)
		})
	}
}

func TestVoteServiceCastRejectionCountsNothing(t *testing.T) {
	svc, _ := newVoteFixture(nil)
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Cast(context.Background(), CastVoteRequest{
		TargetID: "voter-1", Type: models.VoteTypeUp, VoterID: "voter-1",
	})
	require.Error(t, err)
	assert.Empty(t, counters.votes)
}

func TestMentorServiceUpgradeCountsUpgrade(t *testing.T) {
	svc, _ := newMentorFixture(&models.Profile{
		ID: "stu-1", Role: models.RoleStudent, Rating: 4.5, CompletedCount: 5,
	})
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Upgrade(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counters.mentorUpgrades)
}

func TestQuestionServiceAnswerCountsOnlyRewardedWrites(t *testing.T) {
	svc, _ := newQuestionFixture()
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	_, err := svc.Answer(context.Background(), AnswerQuestionRequest{
		QuestionID: "q-1", Body: "use the distributive law", AnswererID: "tch-1",
	})
	require.NoError(t, err)
	assert.Empty(t, counters.ledgerWrites)

	_, err = svc.Answer(context.Background(), AnswerQuestionRequest{
		QuestionID: "q-1", Body: "start with the base case", AnswererID: "mentor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mentor_reward"}, counters.ledgerWrites)
}

type badgeRepoStub struct {
	badge    *models.Badge
	resolved []models.BadgeMintStatus
}

func (s *badgeRepoStub) Create(ctx context.Context, badge *models.Badge) error {
	badge.ID = "badge-1"
	return nil
}

func (s *badgeRepoStub) FindByID(ctx context.Context, id string) (*models.Badge, error) {
	if s.badge == nil || s.badge.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.badge, nil
}

func (s *badgeRepoStub) ListByProfile(ctx context.Context, profileID string) ([]models.Badge, error) {
	return nil, nil
}

func (s *badgeRepoStub) UpdateMintStatus(ctx context.Context, id string, status models.BadgeMintStatus, tokenURI *string) error {
	s.resolved = append(s.resolved, status)
	return nil
}

type badgeProfileStub struct{}

func (badgeProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return &models.Profile{ID: id, Role: models.RoleTeacher}, nil
}

func TestBadgeServiceMintHandlerCountsResolution(t *testing.T) {
	badges := &badgeRepoStub{badge: &models.Badge{ID: "badge-1", MintStatus: models.BadgeMintPending}}
	svc := NewBadgeService(badges, badgeProfileStub{}, nil, nil, zap.NewNop())
	counters := &counterRecorderStub{}
	svc.AttachMetrics(counters)

	handler := svc.MintHandler()
	err := handler(context.Background(), jobs.Job{
		ID: "badge-1", Type: "badge_mint", Payload: MintJobPayload{BadgeID: "badge-1"},
	})
	require.NoError(t, err)
	require.Len(t, badges.resolved, 1)
	assert.Equal(t, []string{"SKIPPED"}, counters.badgeMints)
}
