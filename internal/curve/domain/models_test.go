package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierAt_DecaySequence(t *testing.T) {
	const period = int64(3600)
	curve := Curve{
		NumPeriods:    6,
		FormulaBase:   2,
		PeriodSeconds: uint32(period),
		StartTime:     0,
		MinMultiplier: 0,
	}

	expected := []uint64{64, 32, 16, 8, 4, 2, 1, 0}
	for i, want := range expected {
		now := int64(i) * period
		assert.Equal(t, want, curve.MultiplierAt(now), "elapsed periods %d", i)
	}

	// Anywhere past the horizon stays at the floor.
	assert.Equal(t, uint64(0), curve.MultiplierAt(100*period))
}

func TestMultiplierAt_FloorAndFlatCurve(t *testing.T) {
	curve := Curve{
		NumPeriods:    4,
		FormulaBase:   2,
		PeriodSeconds: 60,
		MinMultiplier: 6,
	}

	// 2^1 = 2 would undercut the floor at elapsed 3.
	assert.Equal(t, uint64(16), curve.MultiplierAt(0))
	assert.Equal(t, uint64(8), curve.MultiplierAt(60))
	assert.Equal(t, uint64(6), curve.MultiplierAt(180))
	assert.Equal(t, uint64(6), curve.MultiplierAt(600))

	flat := Curve{NumPeriods: 0, MinMultiplier: 5, PeriodSeconds: 60}
	assert.Equal(t, uint64(5), flat.MultiplierAt(0))
	assert.Equal(t, uint64(5), flat.MultiplierAt(1<<40))
}

func TestMultiplierAt_BeforeStart(t *testing.T) {
	curve := Curve{
		NumPeriods:    6,
		FormulaBase:   2,
		PeriodSeconds: 3600,
		StartTime:     10000,
		MinMultiplier: 0,
	}

	// Negative elapsed clamps to zero periods.
	assert.Equal(t, uint64(64), curve.MultiplierAt(500))
	assert.Equal(t, uint64(64), curve.MultiplierAt(10000))
}

func TestValidate(t *testing.T) {
	now := int64(1_700_000_000)

	valid := Curve{NumPeriods: 6, FormulaBase: 2, PeriodSeconds: 3600, StartTime: now, MinMultiplier: 0}
	require.NoError(t, valid.Validate(now))

	tests := []struct {
		name  string
		curve Curve
	}{
		{"zero periods with zero floor", Curve{NumPeriods: 0, MinMultiplier: 0, PeriodSeconds: 60}},
		{"zero period seconds", Curve{NumPeriods: 2, FormulaBase: 2, PeriodSeconds: 0}},
		{"future start", Curve{NumPeriods: 2, FormulaBase: 2, PeriodSeconds: 60, StartTime: now + 10}},
		{"multiplier ceiling exceeded", Curve{NumPeriods: 33, FormulaBase: 2, PeriodSeconds: 60}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.curve.Validate(now), ErrCurveInvalid)
		})
	}
}

func TestValidate_CeilingBoundary(t *testing.T) {
	now := int64(1_700_000_000)

	// 2^32 is the ceiling itself and allowed.
	atCeiling := Curve{NumPeriods: 32, FormulaBase: 2, PeriodSeconds: 60, StartTime: now}
	assert.NoError(t, atCeiling.Validate(now))

	over := Curve{NumPeriods: 33, FormulaBase: 2, PeriodSeconds: 60, StartTime: now}
	assert.ErrorIs(t, over.Validate(now), ErrCurveInvalid)
}
