package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionTypeInitial      TransactionType = "initial"
	TransactionTypeEarned       TransactionType = "earned"
	TransactionTypeSpent        TransactionType = "spent"
	TransactionTypeMentorReward TransactionType = "mentor_reward"
)

// TokenTransaction is an immutable, append-only ledger entry. A profile's
// token balance equals the sum of its transaction amounts; entries are only
// removed when the whole account is deleted.
type TokenTransaction struct {
	ID          string          `db:"id" json:"id"`
	ProfileID   string          `db:"profile_id" json:"profile_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Type        TransactionType `db:"tx_type" json:"type"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// BalanceAudit reports the stored balance next to the recomputed ledger sum.
type BalanceAudit struct {
	ProfileID  string          `json:"profile_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Consistent bool            `json:"consistent"`
}
