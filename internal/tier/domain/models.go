// Package domain contains the tier registry model, pricing math and
// join/renewal validation.
package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrTierNotFound            = errors.New("tier_not_found")
	ErrTierNotStarted          = errors.New("tier_not_started")
	ErrTierHasNoSupply         = errors.New("tier_has_no_supply")
	ErrTierInvalidMintPrice    = errors.New("tier_invalid_mint_price")
	ErrTierRenewalsPaused      = errors.New("tier_renewals_paused")
	ErrTierInvalidRenewalPrice = errors.New("tier_invalid_renewal_price")
	ErrMaxCommitmentExceeded   = errors.New("tier_max_commitment_exceeded")
	ErrTierEndExceeded         = errors.New("tier_end_exceeded")
	ErrTierInvalidSupplyCap    = errors.New("tier_invalid_supply_cap")
	ErrTierInvalidDuration     = errors.New("tier_invalid_duration")
	ErrTierInvalidTiming       = errors.New("tier_invalid_timing")
	ErrTierInvalidRewardBps    = errors.New("tier_invalid_reward_bps")
	ErrTierIDsExhausted        = errors.New("tier_ids_exhausted")
)

// Tier is a pricing/eligibility configuration subscribers attach to. Ids are
// sequential from 1 and never reused within a deployment.
type Tier struct {
	ID uint16 `gorm:"primaryKey;autoIncrement:false"`
	// PeriodDurationSeconds is the length of one billing period.
	PeriodDurationSeconds int64 `gorm:"not null"`
	// MaxSupply caps live subscribers; 0 means unlimited.
	MaxSupply uint32 `gorm:"not null;default:0"`
	// MaxCommitmentSeconds caps total remaining time; 0 means unlimited.
	MaxCommitmentSeconds int64 `gorm:"not null;default:0"`
	// StartTime/EndTime bound the tier's sale window, unix seconds; 0 means
	// unbounded on that side.
	StartTime int64 `gorm:"not null;default:0"`
	EndTime   int64 `gorm:"not null;default:0"`
	// CurveID selects the reward curve sampled at purchase time.
	CurveID uint8 `gorm:"not null;default:0"`
	// RewardBasisPoints routes that share of every payment into the reward pool.
	RewardBasisPoints uint16 `gorm:"not null;default:0"`
	Paused            bool   `gorm:"not null;default:false"`
	Transferable      bool   `gorm:"not null;default:true"`
	InitialMintPrice  int64  `gorm:"not null;default:0"`
	PricePerPeriod    int64  `gorm:"not null;default:0"`
	// GateRef is an opaque reference interpreted by the gate collaborator.
	GateRef string `gorm:"type:text;not null;default:''"`
	// SubCount is the live subscriber count.
	SubCount  uint32            `gorm:"not null;default:0"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tier) TableName() string { return "tiers" }

// Validate vets a tier configuration against now (unix seconds).
func (t Tier) Validate(now int64, rewardBpsCap uint16) error {
	if t.PeriodDurationSeconds <= 0 {
		return ErrTierInvalidDuration
	}
	if t.EndTime != 0 && (t.EndTime <= now || t.EndTime <= t.StartTime) {
		return ErrTierInvalidTiming
	}
	if t.RewardBasisPoints > rewardBpsCap {
		return ErrTierInvalidRewardBps
	}
	return nil
}

// CheckJoin validates a new subscriber against supply, timing and price.
// Gate eligibility is checked separately by the caller.
func (t Tier) CheckJoin(payment, now int64) error {
	if now < t.StartTime {
		return ErrTierNotStarted
	}
	if t.MaxSupply != 0 && t.SubCount >= t.MaxSupply {
		return ErrTierHasNoSupply
	}
	if payment < t.InitialMintPrice {
		return ErrTierInvalidMintPrice
	}
	return nil
}

// CheckRenewal validates a renewal payment and converts it to seconds.
// remaining is the subscriber's current remaining time across both
// components; the commitment and end-date caps apply to the post-renewal
// total.
func (t Tier) CheckRenewal(remaining, payment, now int64) (int64, error) {
	if t.Paused {
		return 0, ErrTierRenewalsPaused
	}
	if payment < t.PricePerPeriod {
		return 0, ErrTierInvalidRenewalPrice
	}

	seconds, err := t.SecondsFromTokens(payment)
	if err != nil {
		return 0, err
	}
	if t.MaxCommitmentSeconds != 0 && remaining+seconds > t.MaxCommitmentSeconds {
		return 0, ErrMaxCommitmentExceeded
	}
	if t.EndTime != 0 && now+remaining+seconds > t.EndTime {
		return 0, ErrTierEndExceeded
	}
	return seconds, nil
}
