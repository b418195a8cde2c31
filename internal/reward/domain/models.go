// Package domain contains the points-per-share reward distribution model.
//
// The pool carries one global fixed-point accumulator, pointsPerShare, that
// only ever increases. Each holder carries a signed correction so that the
// O(1) balance formula starts every newly issued position at exactly zero,
// no matter how much the accumulator had already grown.
package domain

import (
	"errors"
	"math/big"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenura/pkg/numeric"
)

var (
	ErrInvalidHolder           = errors.New("reward_invalid_holder")
	ErrInvalidShares           = errors.New("reward_invalid_shares")
	ErrInvalidAmount           = errors.New("reward_invalid_amount")
	ErrAllocationWithoutShares = errors.New("reward_allocation_without_shares")
	ErrNothingToClaim          = errors.New("reward_nothing_to_claim")
	ErrNoSharesToBurn          = errors.New("reward_no_shares_to_burn")
)

// PointsScale is the fixed-point scale of the pointsPerShare accumulator.
// A power of two divides evenly by every power-of-two curve multiplier, so
// single-holder pools claim allocations back exactly.
var PointsScale = new(big.Int).Lsh(big.NewInt(1), 96)

// Pool is the singleton pool-wide ledger row.
type Pool struct {
	ID                 uint8       `gorm:"primaryKey;autoIncrement:false"`
	TotalShares        numeric.Int `gorm:"not null"`
	PointsPerShare     numeric.Int `gorm:"not null"`
	TotalRewardIngress numeric.Int `gorm:"not null"`
	TotalRewardEgress  numeric.Int `gorm:"not null"`
	UpdatedAt          time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Pool) TableName() string { return "reward_pools" }

// PoolID is the fixed primary key of the singleton row.
const PoolID = uint8(1)

// Holder is one account's position in the pool.
type Holder struct {
	AccountID        snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	NumShares        numeric.Int  `gorm:"not null"`
	RewardsWithdrawn numeric.Int  `gorm:"not null"`
	// PointsCorrection is signed; issuance subtracts pointsPerShare * shares
	// so the holder takes no part in allocations that predate them.
	PointsCorrection numeric.Int `gorm:"not null"`
	CreatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Holder) TableName() string { return "reward_holders" }

// Balance computes the holder's claimable value:
//
//	(pointsPerShare*numShares + pointsCorrection) / scale - rewardsWithdrawn
//
// For holders whose shares were only ever issued through this ledger the
// result is never negative.
func (h Holder) Balance(pointsPerShare *big.Int) *big.Int {
	accumulated := new(big.Int).Mul(pointsPerShare, h.NumShares.Big())
	accumulated.Add(accumulated, h.PointsCorrection.Big())
	accumulated.Quo(accumulated, PointsScale)
	return accumulated.Sub(accumulated, h.RewardsWithdrawn.Big())
}
