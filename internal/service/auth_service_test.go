package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type authProfileStub struct {
	byWallet map[string]*models.Profile
}

func (s authProfileStub) FindByWallet(ctx context.Context, address string) (*models.Profile, error) {
	if p, ok := s.byWallet[address]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s authProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	for _, p := range s.byWallet {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

type authSessionStub struct {
	sessions map[string]*models.WalletSession
	revoked  []string
}

func (s *authSessionStub) Create(ctx context.Context, session *models.WalletSession) error {
	s.sessions[session.Token] = session
	return nil
}

func (s *authSessionStub) Find(ctx context.Context, token string) (*models.WalletSession, error) {
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authSessionStub) Revoke(ctx context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	delete(s.sessions, token)
	return nil
}

func (s *authSessionStub) RevokeProfileSessions(ctx context.Context, profileID string) error {
	return nil
}

type nonceStoreStub struct {
	values map[string]string
}

func (s *nonceStoreStub) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *nonceStoreStub) GetDelString(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	delete(s.values, key)
	return value, nil
}

func newAuthFixture() (*AuthService, *authSessionStub, *nonceStoreStub) {
	profiles := authProfileStub{byWallet: map[string]*models.Profile{
		testWallet: {ID: "prof-1", WalletAddress: testWallet, DisplayName: "Andi", Role: models.RoleStudent},
	}}
	sessions := &authSessionStub{sessions: map[string]*models.WalletSession{}}
	nonces := &nonceStoreStub{values: map[string]string{}}
	svc := NewAuthService(profiles, sessions, nonces, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test_secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		NonceTTL:           5 * time.Minute,
	})
	return svc, sessions, nonces
}

func TestAuthServiceNonceLoginRoundTrip(t *testing.T) {
	svc, sessions, _ := newAuthFixture()

	nonce, err := svc.Nonce(context.Background(), models.NonceRequest{WalletAddress: testWallet})
	require.NoError(t, err)
	require.NotEmpty(t, nonce.Nonce)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		WalletAddress: testWallet,
		Nonce:         nonce.Nonce,
		Signature:     "0xsigned",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, "prof-1", login.Profile.ID)
	assert.Len(t, sessions.sessions, 1)

	claims, err := svc.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "prof-1", claims.ProfileID)
	assert.Equal(t, testWallet, claims.WalletAddress)
}

func TestAuthServiceLoginRejectsReplayedNonce(t *testing.T) {
	svc, _, _ := newAuthFixture()

	nonce, err := svc.Nonce(context.Background(), models.NonceRequest{WalletAddress: testWallet})
	require.NoError(t, err)

	req := models.LoginRequest{WalletAddress: testWallet, Nonce: nonce.Nonce, Signature: "0xsigned"}
	_, err = svc.Login(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsUnknownWallet(t *testing.T) {
	svc, _, nonces := newAuthFixture()
	other := "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	nonces.values["auth:nonce:"+other] = "challenge"

	_, err := svc.Login(context.Background(), models.LoginRequest{
		WalletAddress: other,
		Nonce:         "challenge",
		Signature:     "0xsigned",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesSession(t *testing.T) {
	svc, sessions, _ := newAuthFixture()

	nonce, err := svc.Nonce(context.Background(), models.NonceRequest{WalletAddress: testWallet})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), models.LoginRequest{
		WalletAddress: testWallet, Nonce: nonce.Nonce, Signature: "0xsigned",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Contains(t, sessions.revoked, login.RefreshToken)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutChecksOwnership(t *testing.T) {
	svc, _, _ := newAuthFixture()

	nonce, err := svc.Nonce(context.Background(), models.NonceRequest{WalletAddress: testWallet})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), models.LoginRequest{
		WalletAddress: testWallet, Nonce: nonce.Nonce, Signature: "0xsigned",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), "someone-else", login.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "prof-1", login.RefreshToken))
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
