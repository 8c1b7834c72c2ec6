package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfileRole represents the role of a platform participant. Roles are
// immutable after onboarding.
type ProfileRole string

const (
	RoleStudent ProfileRole = "STUDENT"
	RoleTeacher ProfileRole = "TEACHER"
)

// Profile represents a wallet-identified participant. Rating is always the
// mean of the stars the profile has received; TokenBalance is the running
// sum of the profile's ledger entries.
type Profile struct {
	ID             string          `db:"id" json:"id"`
	WalletAddress  string          `db:"wallet_address" json:"wallet_address"`
	DisplayName    string          `db:"display_name" json:"display_name"`
	Role           ProfileRole     `db:"role" json:"role"`
	Rating         float64         `db:"rating" json:"rating"`
	TotalReviews   int             `db:"total_reviews" json:"total_reviews"`
	Upvotes        int             `db:"upvotes" json:"upvotes"`
	Downvotes      int             `db:"downvotes" json:"downvotes"`
	CompletedCount int             `db:"completed_count" json:"completed_count"`
	IsMentor       bool            `db:"is_mentor" json:"is_mentor"`
	TokenBalance   decimal.Decimal `db:"token_balance" json:"token_balance"`
	AvatarURL      *string         `db:"avatar_url" json:"avatar_url,omitempty"`
	Bio            *string         `db:"bio" json:"bio,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ProfileFilter captures filtering criteria for listing profiles.
type ProfileFilter struct {
	Role      ProfileRole
	IsMentor  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
