package domain

import (
	"context"
	"math/big"

	"github.com/bwmarrin/snowflake"
)

type PurchaseRequest struct {
	AccountID snowflake.ID `json:"account_id"`
	TierID    uint16       `json:"tier_id"`
	// PaymentAmount is the value offered; the captured amount may be lower
	// for fee-on-transfer currencies and is what prices the purchase.
	PaymentAmount int64 `json:"payment_amount"`
}

type PurchaseResult struct {
	SecondsAdded int64 `json:"seconds_added"`
	ExpiresAt    int64 `json:"expires_at"`
	// SharesIssued is nil for tiers without a reward cut.
	SharesIssued *big.Int `json:"shares_issued,omitempty"`
}

type GrantRequest struct {
	AccountID snowflake.ID `json:"account_id"`
	Seconds   int64        `json:"seconds"`
	// TierID 0 resolves to the account's current tier, else the default
	// grant tier.
	TierID uint16 `json:"tier_id"`
}

type RefundResult struct {
	Amount  int64 `json:"amount"`
	Seconds int64 `json:"seconds"`
}

type Service interface {
	// Purchase captures payment, joins or renews the requested tier and
	// issues reward shares when the tier carries a reward cut.
	Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error)
	// Grant is administrative time issuance; it bypasses join pricing.
	Grant(ctx context.Context, req GrantRequest) (Subscription, error)
	// RevokeTime zeroes the granted component and returns the seconds taken.
	RevokeTime(ctx context.Context, account snowflake.ID) (int64, error)
	// Refund zeroes the purchased component and pays amount back; amount 0
	// asks for the time-proportional estimate.
	Refund(ctx context.Context, account snowflake.ID, amount int64) (RefundResult, error)
	// SwitchTier re-denominates remaining purchased time onto the new tier
	// and drops granted time, which does not carry across tiers.
	SwitchTier(ctx context.Context, account snowflake.ID, tierID uint16) (Subscription, error)
	// Deactivate detaches an account from its tier, permitted only once no
	// time remains.
	Deactivate(ctx context.Context, account snowflake.ID) error

	RemainingSeconds(ctx context.Context, account snowflake.ID) (int64, error)
	Detail(ctx context.Context, account snowflake.ID) (Subscription, error)
}
