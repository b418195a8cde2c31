package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondsFromTokens_WorkedExample(t *testing.T) {
	// Rate of 2 units per second: 8 units buy 4 seconds.
	tier := Tier{PricePerPeriod: 8, PeriodDurationSeconds: 4}

	seconds, err := tier.SecondsFromTokens(1_000_000_000_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000_000_000_000_000), seconds)

	seconds, err = tier.SecondsFromTokens(8)
	require.NoError(t, err)
	assert.Equal(t, int64(4), seconds)
}

func TestSecondsFromTokens_FreeTier(t *testing.T) {
	tier := Tier{PricePerPeriod: 0, PeriodDurationSeconds: 2592000}

	// Any non-negative payment yields exactly one period.
	for _, amount := range []int64{0, 1, 1_000_000} {
		seconds, err := tier.SecondsFromTokens(amount)
		require.NoError(t, err)
		assert.Equal(t, int64(2592000), seconds)
	}

	_, err := tier.SecondsFromTokens(-1)
	assert.ErrorIs(t, err, ErrTierInvalidRenewalPrice)
}

func TestSecondsFromTokens_SmallDecimalCurrency(t *testing.T) {
	// A 6-decimal currency: 5 units for a 30-day period. The scaled rate
	// keeps sub-unit payments from truncating to zero seconds.
	tier := Tier{PricePerPeriod: 5_000_000, PeriodDurationSeconds: 2592000}

	seconds, err := tier.SecondsFromTokens(5_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(2592000), seconds)

	// Roughly half a period for half the price.
	seconds, err = tier.SecondsFromTokens(2_500_000)
	require.NoError(t, err)
	assert.InDelta(t, 1296000, seconds, 1)

	// Two base units still buy measurable time.
	seconds, err = tier.SecondsFromTokens(2)
	require.NoError(t, err)
	assert.Greater(t, seconds, int64(0))
}

func TestSwitchTimeValue_RoundTrip(t *testing.T) {
	// Price per second: a = 2, b = 5.
	a := Tier{PricePerPeriod: 8, PeriodDurationSeconds: 4}
	b := Tier{PricePerPeriod: 50, PeriodDurationSeconds: 10}

	remaining := int64(1000)
	onB := SwitchTimeValue(b, a, remaining)
	assert.Equal(t, int64(400), onB)

	backOnA := SwitchTimeValue(a, b, onB)
	// At most one unit lost per conversion.
	assert.InDelta(t, remaining, backOnA, 2)
	assert.LessOrEqual(t, backOnA, remaining)
}

func TestSwitchTimeValue_FreeTiers(t *testing.T) {
	paid := Tier{PricePerPeriod: 8, PeriodDurationSeconds: 4}
	free := Tier{PricePerPeriod: 0, PeriodDurationSeconds: 4}

	// Free-tier time carries no payment value in either direction.
	assert.Equal(t, int64(0), SwitchTimeValue(paid, free, 1000))
	assert.Equal(t, int64(0), SwitchTimeValue(free, paid, 1000))
	assert.Equal(t, int64(0), SwitchTimeValue(paid, paid, 0))
}

func TestCheckJoin(t *testing.T) {
	now := int64(1_700_000_000)
	tier := Tier{
		PeriodDurationSeconds: 3600,
		StartTime:             now - 100,
		MaxSupply:             2,
		InitialMintPrice:      10,
	}

	require.NoError(t, tier.CheckJoin(10, now))

	notStarted := tier
	notStarted.StartTime = now + 50
	assert.ErrorIs(t, notStarted.CheckJoin(10, now), ErrTierNotStarted)

	full := tier
	full.SubCount = 2
	assert.ErrorIs(t, full.CheckJoin(10, now), ErrTierHasNoSupply)

	unlimited := tier
	unlimited.MaxSupply = 0
	unlimited.SubCount = 1_000_000
	assert.NoError(t, unlimited.CheckJoin(10, now))

	assert.ErrorIs(t, tier.CheckJoin(9, now), ErrTierInvalidMintPrice)
}

func TestCheckRenewal(t *testing.T) {
	now := int64(1_700_000_000)
	tier := Tier{
		PeriodDurationSeconds: 4,
		PricePerPeriod:        8,
		MaxCommitmentSeconds:  100,
	}

	seconds, err := tier.CheckRenewal(0, 16, now)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seconds)

	paused := tier
	paused.Paused = true
	_, err = paused.CheckRenewal(0, 16, now)
	assert.ErrorIs(t, err, ErrTierRenewalsPaused)

	_, err = tier.CheckRenewal(0, 7, now)
	assert.ErrorIs(t, err, ErrTierInvalidRenewalPrice)

	// 96 remaining + 8 bought exceeds the 100 second commitment cap.
	_, err = tier.CheckRenewal(96, 16, now)
	assert.ErrorIs(t, err, ErrMaxCommitmentExceeded)

	ending := tier
	ending.MaxCommitmentSeconds = 0
	ending.EndTime = now + 10
	_, err = ending.CheckRenewal(4, 16, now)
	assert.ErrorIs(t, err, ErrTierEndExceeded)

	seconds, err = ending.CheckRenewal(0, 16, now)
	require.NoError(t, err)
	assert.Equal(t, int64(8), seconds)
}

func TestValidateTier(t *testing.T) {
	now := int64(1_700_000_000)

	valid := Tier{PeriodDurationSeconds: 3600, RewardBasisPoints: 500}
	require.NoError(t, valid.Validate(now, 5000))

	zeroDuration := Tier{PeriodDurationSeconds: 0}
	assert.ErrorIs(t, zeroDuration.Validate(now, 5000), ErrTierInvalidDuration)

	pastEnd := Tier{PeriodDurationSeconds: 3600, EndTime: now - 1}
	assert.ErrorIs(t, pastEnd.Validate(now, 5000), ErrTierInvalidTiming)

	endBeforeStart := Tier{PeriodDurationSeconds: 3600, StartTime: now + 200, EndTime: now + 100}
	assert.ErrorIs(t, endBeforeStart.Validate(now, 5000), ErrTierInvalidTiming)

	overCap := Tier{PeriodDurationSeconds: 3600, RewardBasisPoints: 5001}
	assert.ErrorIs(t, overCap.Validate(now, 5000), ErrTierInvalidRewardBps)
}
