// Package domain contains the per-account subscription time-balance model.
//
// Remaining time is offset-based: each component reads as
// offset + accumulatedSeconds - now, and writes only re-base the offset
// before adding, so expiry never needs a per-tick storage update.
package domain

import (
	"errors"
	"math/big"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrGrantInvalidTime     = errors.New("subscription_grant_invalid_time")
	ErrDeactivationFailure  = errors.New("subscription_deactivation_failure")
	ErrNothingToRefund      = errors.New("subscription_nothing_to_refund")
	ErrInvalidAccount       = errors.New("subscription_invalid_account")
)

// Subscription is one account's time balance. Purchased and granted time are
// tracked as independent offset pairs; the record outlives expiry and is only
// detached from its tier by an explicit deactivation.
type Subscription struct {
	AccountID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	// TokenID is the stable identity handed to external surfaces. It never
	// changes across tier switches.
	TokenID snowflake.ID `gorm:"not null;uniqueIndex"`
	// TierID 0 means deactivated.
	TierID           uint16 `gorm:"not null;default:0"`
	SecondsPurchased int64  `gorm:"not null;default:0"`
	PurchaseOffset   int64  `gorm:"not null;default:0"`
	SecondsGranted   int64  `gorm:"not null;default:0"`
	GrantOffset      int64  `gorm:"not null;default:0"`
	// TotalPurchased is the payment value backing the purchased component.
	// It grows with purchases, scales down with the unexpired proportion on
	// tier switches, and resets when the component is cleared, so a refund
	// estimate can never exceed what was paid for the seconds still held.
	TotalPurchased int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// ExpiresAt is the later of the two component expiries, unix seconds.
func (s Subscription) ExpiresAt() int64 {
	purchased := s.PurchaseOffset + s.SecondsPurchased
	granted := s.GrantOffset + s.SecondsGranted
	if granted > purchased {
		return granted
	}
	return purchased
}

// RemainingAt returns the total remaining time at now, never negative.
func (s Subscription) RemainingAt(now int64) int64 {
	if remaining := s.ExpiresAt() - now; remaining > 0 {
		return remaining
	}
	return 0
}

// PurchasedRemainingAt returns the unexpired purchased component at now.
func (s Subscription) PurchasedRemainingAt(now int64) int64 {
	if remaining := s.PurchaseOffset + s.SecondsPurchased - now; remaining > 0 {
		return remaining
	}
	return 0
}

// GrantedRemainingAt returns the unexpired granted component at now.
func (s Subscription) GrantedRemainingAt(now int64) int64 {
	if remaining := s.GrantOffset + s.SecondsGranted - now; remaining > 0 {
		return remaining
	}
	return 0
}

// AddPurchasedAt credits purchased time. A lapsed component is re-based to
// now - accumulated first, so expired seconds never resurface.
func (s *Subscription) AddPurchasedAt(now, seconds int64) {
	if s.PurchaseOffset+s.SecondsPurchased <= now {
		s.PurchaseOffset = now - s.SecondsPurchased
	}
	s.SecondsPurchased += seconds
}

// AddGrantedAt credits granted time with the same re-basing rule.
func (s *Subscription) AddGrantedAt(now, seconds int64) {
	if s.GrantOffset+s.SecondsGranted <= now {
		s.GrantOffset = now - s.SecondsGranted
	}
	s.SecondsGranted += seconds
}

// ClearGranted zeroes the granted component and returns the seconds that
// were still unexpired at now.
func (s *Subscription) ClearGranted(now int64) int64 {
	revoked := s.GrantedRemainingAt(now)
	s.SecondsGranted = 0
	s.GrantOffset = 0
	return revoked
}

// ClearPurchased zeroes the purchased component, value base included, and
// returns the seconds that were still unexpired at now.
func (s *Subscription) ClearPurchased(now int64) int64 {
	remaining := s.PurchasedRemainingAt(now)
	s.SecondsPurchased = 0
	s.PurchaseOffset = 0
	s.TotalPurchased = 0
	return remaining
}

// SetPurchasedRemaining replaces the purchased component with exactly
// seconds remaining as of now. Used by tier switches after re-denominating
// time value; the value base scales down to the unexpired proportion so the
// consumed share is not refundable later.
func (s *Subscription) SetPurchasedRemaining(now, seconds int64) {
	if s.SecondsPurchased > 0 {
		base := big.NewInt(s.TotalPurchased)
		base.Mul(base, big.NewInt(s.PurchasedRemainingAt(now)))
		base.Quo(base, big.NewInt(s.SecondsPurchased))
		s.TotalPurchased = base.Int64()
	} else {
		s.TotalPurchased = 0
	}
	s.SecondsPurchased = seconds
	s.PurchaseOffset = now
}
