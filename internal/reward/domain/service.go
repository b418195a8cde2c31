package domain

import (
	"context"
	"math/big"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// WithTx returns a view of the service that joins tx, so purchase flows
	// can issue and allocate atomically with subscription state.
	WithTx(tx *gorm.DB) Service

	Issue(ctx context.Context, account snowflake.ID, shares *big.Int) error
	// IssueWithCurve multiplies baseShares by curveID's current multiplier
	// before issuing, and returns the shares actually issued. A fully decayed
	// curve (multiplier 0) issues nothing.
	IssueWithCurve(ctx context.Context, account snowflake.ID, baseShares *big.Int, curveID uint8) (*big.Int, error)
	Allocate(ctx context.Context, amount *big.Int) error
	BalanceOf(ctx context.Context, account snowflake.ID) (*big.Int, error)
	// Claim pays out the holder's full accrued balance and returns the amount
	// handed to the currency collaborator.
	Claim(ctx context.Context, account snowflake.ID) (*big.Int, error)
	// Burn auto-claims any pending balance, removes the holder's shares from
	// the pool and deletes the record. Returns the auto-claimed amount.
	Burn(ctx context.Context, account snowflake.ID) (*big.Int, error)
	PoolDetail(ctx context.Context) (Pool, error)
	HolderDetail(ctx context.Context, account snowflake.ID) (Holder, error)
}
