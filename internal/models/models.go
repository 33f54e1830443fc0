package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
)

// Account is one platform user. ReferrerID is a weak reference forming the
// referral forest; balances are integer minor units and never go negative.
type Account struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ReferrerID    *uuid.UUID `json:"referrer_id"`
	Name          string     `json:"name"`
	Document      string     `json:"document"`
	Balance       int64      `json:"balance"`
	BalanceInvest int64      `json:"balance_invest"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Deposit is one inbound payment attempt. ExternalRef is nil until the
// gateway assigns a QR reference. Rows are never deleted.
type Deposit struct {
	ID          uuid.UUID            `json:"id"`
	AccountID   uuid.UUID            `json:"account_id"`
	ExternalRef *string              `json:"external_ref"`
	Value       int64                `json:"value"`
	Method      int16                `json:"method"`
	Status      domain.DepositStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Withdrawal is one payout request. The destination key type is derived
// from PixKey at processing time, not stored.
type Withdrawal struct {
	ID        uuid.UUID               `json:"id"`
	AccountID uuid.UUID               `json:"account_id"`
	Value     int64                   `json:"value"`
	PixKey    string                  `json:"pix_key"`
	Document  string                  `json:"document"`
	Method    int16                   `json:"method"`
	Status    domain.WithdrawalStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// LedgerEntry is the append-only audit record of one balance-affecting
// event. Value is always positive; direction is implied by Category.
type LedgerEntry struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"account_id"`
	Value       int64      `json:"value"`
	Category    string     `json:"category"`
	Outcome     string     `json:"outcome"`
	Description string     `json:"description"`
	ReferenceID *uuid.UUID `json:"reference_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Contract is the investment position opened when a deposit confirms.
type Contract struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Principal int64     `json:"principal"`
	Yield     int64     `json:"yield"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
