// Package domain contains the reward-curve model and its decay math.
package domain

import (
	"errors"
	"time"
)

var (
	ErrCurveNotFound = errors.New("curve_not_found")
	ErrCurveInvalid  = errors.New("curve_invalid")
)

// MaxMultiplier bounds formulaBase^numPeriods at creation so runtime
// multiplier math never overflows uint64.
const MaxMultiplier = uint64(1) << 32

// Curve is an immutable step-decay multiplier configuration. Earlier
// participants sample a higher multiplier; after NumPeriods decay steps the
// curve rests at MinMultiplier.
type Curve struct {
	ID            uint8  `gorm:"primaryKey;autoIncrement:false"`
	NumPeriods    uint16 `gorm:"not null"`
	FormulaBase   uint8  `gorm:"not null"`
	PeriodSeconds uint32 `gorm:"not null"`
	// StartTime anchors decay, unix seconds.
	StartTime     int64     `gorm:"not null"`
	MinMultiplier uint8     `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Curve) TableName() string { return "reward_curves" }

// MultiplierAt samples the curve at now (unix seconds).
func (c Curve) MultiplierAt(now int64) uint64 {
	floor := uint64(c.MinMultiplier)
	if c.NumPeriods == 0 || c.PeriodSeconds == 0 {
		return floor
	}

	elapsed := (now - c.StartTime) / int64(c.PeriodSeconds)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > int64(c.NumPeriods) {
		return floor
	}

	multiplier, ok := pow(uint64(c.FormulaBase), uint64(int64(c.NumPeriods)-elapsed))
	if !ok {
		// Creation validation bounds the exponent, so this is unreachable for
		// stored curves.
		return floor
	}
	if multiplier < floor {
		return floor
	}
	return multiplier
}

// Validate rejects configurations that can never produce a meaningful
// multiplier or whose peak would overflow.
func (c Curve) Validate(now int64) error {
	if c.NumPeriods == 0 && c.MinMultiplier == 0 {
		return ErrCurveInvalid
	}
	if c.NumPeriods > 0 && c.PeriodSeconds == 0 {
		return ErrCurveInvalid
	}
	if c.StartTime > now {
		return ErrCurveInvalid
	}
	if c.NumPeriods > 0 {
		peak, ok := pow(uint64(c.FormulaBase), uint64(c.NumPeriods))
		if !ok || peak > MaxMultiplier {
			return ErrCurveInvalid
		}
	}
	return nil
}

func pow(base, exp uint64) (uint64, bool) {
	result := uint64(1)
	for i := uint64(0); i < exp; i++ {
		if base != 0 && result > MaxMultiplier {
			return 0, false
		}
		result *= base
	}
	return result, true
}
