package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NonceRequest asks for a login challenge for a wallet address.
type NonceRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required"`
}

// NonceResponse returns the challenge the wallet has to sign.
type NonceResponse struct {
	WalletAddress string    `json:"wallet_address"`
	Nonce         string    `json:"nonce"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// LoginRequest presents a signed nonce for a wallet address.
type LoginRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required"`
	Nonce         string `json:"nonce" validate:"required"`
	Signature     string `json:"signature" validate:"required"`
	IP            string `json:"-"`
	UserAgent     string `json:"-"`
}

// LoginResponse returns the issued tokens and profile info.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	Profile      ProfileInfo `json:"profile"`
	IssuedAt     time.Time   `json:"issued_at"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshResponse returns the refreshed tokens.
type RefreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ProfileInfo describes the authenticated profile in responses.
type ProfileInfo struct {
	ID            string      `json:"id"`
	WalletAddress string      `json:"wallet_address"`
	DisplayName   string      `json:"display_name"`
	Role          ProfileRole `json:"role"`
	IsMentor      bool        `json:"is_mentor"`
}

// WalletClaims represents the JWT payload for access tokens.
type WalletClaims struct {
	ProfileID     string      `json:"profile_id"`
	WalletAddress string      `json:"wallet_address"`
	Role          ProfileRole `json:"role"`
	IsMentor      bool        `json:"is_mentor"`
	jwt.RegisteredClaims
}

// WalletSession represents a persisted refresh token session.
type WalletSession struct {
	ID        string     `db:"id" json:"id"`
	ProfileID string     `db:"profile_id" json:"profile_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}
