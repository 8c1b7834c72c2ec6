package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/wallet"
)

type authProfileRepository interface {
	FindByWallet(ctx context.Context, address string) (*models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type authSessionRepository interface {
	Create(ctx context.Context, session *models.WalletSession) error
	Find(ctx context.Context, token string) (*models.WalletSession, error)
	Revoke(ctx context.Context, token string) error
	RevokeProfileSessions(ctx context.Context, profileID string) error
}

type nonceStore interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetDelString(ctx context.Context, key string) (string, error)
}

// AuthConfig defines configuration for wallet authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	NonceTTL           time.Duration
}

// AuthService implements the wallet challenge login: the server hands out a
// single-use nonce, the wallet signs it, and a verified signature yields a
// JWT access token plus a rotating refresh session.
type AuthService struct {
	profiles  authProfileRepository
	sessions  authSessionRepository
	nonces    nonceStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(profiles authProfileRepository, sessions authSessionRepository, nonces nonceStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{profiles: profiles, sessions: sessions, nonces: nonces, validator: validate, logger: logger, config: config}
}

func nonceKey(address string) string {
	return "auth:nonce:" + address
}

// Nonce issues a single-use login challenge for a wallet address.
func (s *AuthService) Nonce(ctx context.Context, req models.NonceRequest) (*models.NonceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid nonce payload")
	}
	address, err := wallet.Normalize(req.WalletAddress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wallet address")
	}

	nonce, err := randomToken(32)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create nonce")
	}
	challenge := fmt.Sprintf("educhain-login:%s:%s", address, nonce)
	if err := s.nonces.SetString(ctx, nonceKey(address), challenge, s.config.NonceTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store nonce")
	}

	return &models.NonceResponse{
		WalletAddress: address,
		Nonce:         challenge,
		ExpiresAt:     time.Now().UTC().Add(s.config.NonceTTL),
	}, nil
}

// Login consumes the issued nonce and exchanges the signed challenge for an
// access token and a refresh session. The nonce is deleted on first use, so
// a replayed login fails even inside the TTL window.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	address, err := wallet.Normalize(req.WalletAddress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wallet address")
	}

	stored, err := s.nonces.GetDelString(ctx, nonceKey(address))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrCacheMiss.Code {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "nonce expired or already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nonce")
	}
	if stored != req.Nonce {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "nonce mismatch")
	}
	// TODO: verify the personal_sign signature against the wallet address
	// once the chain gateway client lands; until then a non-empty signature
	// plus nonce possession is the accepted proof.
	if req.Signature == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing signature")
	}

	profile, err := s.profiles.FindByWallet(ctx, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no profile for this wallet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
	}

	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refreshValue, err := randomToken(48)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	session := &models.WalletSession{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Token:     refreshValue,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: session.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		Profile: models.ProfileInfo{
			ID:            profile.ID,
			WalletAddress: profile.WalletAddress,
			DisplayName:   profile.DisplayName,
			Role:          profile.Role,
			IsMentor:      profile.IsMentor,
		},
	}, nil
}

// Refresh rotates a refresh session and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.RefreshResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	session, err := s.sessions.Find(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch session")
	}

	profile, err := s.profiles.FindByID(ctx, session.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated profile no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	if err := s.sessions.Revoke(ctx, session.Token); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	accessToken, err := s.generateAccessToken(profile)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
	}
	refreshValue, err := randomToken(48)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	next := &models.WalletSession{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Token:     refreshValue,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.sessions.Create(ctx, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	return &models.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: next.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Logout revokes the provided refresh token.
func (s *AuthService) Logout(ctx context.Context, profileID, refreshToken string) error {
	session, err := s.sessions.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.ProfileID != profileID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to profile")
	}
	if err := s.sessions.Revoke(ctx, session.Token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// ValidateToken parses and validates an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.WalletClaims, error) {
	claims := &models.WalletClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(profile *models.Profile) (string, error) {
	now := time.Now().UTC()
	claims := models.WalletClaims{
		ProfileID:     profile.ID,
		WalletAddress: profile.WalletAddress,
		Role:          profile.Role,
		IsMentor:      profile.IsMentor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
