package domain

import "math/big"

// tokenScale widens the price-per-second rate so low-magnitude payment units
// (6-decimal currencies, sub-unit prices) survive integer division.
var tokenScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// SecondsFromTokens converts a payment into subscription seconds at this
// tier's rate. A tier with PricePerPeriod == 0 is free: any non-negative
// payment yields exactly one period.
func (t Tier) SecondsFromTokens(amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrTierInvalidRenewalPrice
	}
	if t.PricePerPeriod == 0 {
		return t.PeriodDurationSeconds, nil
	}

	// exaRate = pricePerPeriod * scale / periodDuration; seconds = amount * scale / exaRate.
	exaRate := scaledRate(t)
	seconds := new(big.Int).Mul(big.NewInt(amount), tokenScale)
	seconds.Quo(seconds, exaRate)
	if !seconds.IsInt64() {
		return 0, ErrMaxCommitmentExceeded
	}
	return seconds.Int64(), nil
}

// SwitchTimeValue re-denominates remaining seconds on the from tier into
// seconds on the to tier at equal economic value. Each direction loses at
// most one unit to integer division. Time on a free tier carries no payment
// value, so conversions from a free tier (and onto one) resolve to zero.
func SwitchTimeValue(to, from Tier, remainingSeconds int64) int64 {
	if remainingSeconds <= 0 {
		return 0
	}
	if from.PricePerPeriod == 0 || to.PricePerPeriod == 0 {
		return 0
	}

	// seconds -> scaled value at the source rate -> seconds at the destination rate.
	value := new(big.Int).Mul(big.NewInt(remainingSeconds), scaledRate(from))
	seconds := value.Quo(value, scaledRate(to))
	if !seconds.IsInt64() {
		return 0
	}
	return seconds.Int64()
}

func scaledRate(t Tier) *big.Int {
	rate := new(big.Int).Mul(big.NewInt(t.PricePerPeriod), tokenScale)
	return rate.Quo(rate, big.NewInt(t.PeriodDurationSeconds))
}
