package models

import "time"

// BadgeMintStatus tracks the on-chain state of an awarded badge.
type BadgeMintStatus string

const (
	BadgeMintPending BadgeMintStatus = "PENDING"
	BadgeMintMinted  BadgeMintStatus = "MINTED"
	BadgeMintSkipped BadgeMintStatus = "SKIPPED"
)

// Badge is an achievement displayed on a profile. Minting the matching NFT
// happens asynchronously; the row is the source of truth for display.
type Badge struct {
	ID         string          `db:"id" json:"id"`
	ProfileID  string          `db:"profile_id" json:"profile_id"`
	Kind       string          `db:"kind" json:"kind"`
	Title      string          `db:"title" json:"title"`
	ImageURL   *string         `db:"image_url" json:"image_url,omitempty"`
	TokenURI   *string         `db:"token_uri" json:"token_uri,omitempty"`
	MintStatus BadgeMintStatus `db:"mint_status" json:"mint_status"`
	AwardedBy  string          `db:"awarded_by" json:"awarded_by"`
	AwardedAt  time.Time       `db:"awarded_at" json:"awarded_at"`
}
