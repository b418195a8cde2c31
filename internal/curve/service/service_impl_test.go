package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCurveTest(t *testing.T) (curvedomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&curvedomain.Curve{}))

	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Clock: clk})
	return svc, clk
}

func TestCreateAndGetCurve(t *testing.T) {
	svc, clk := setupCurveTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    6,
		FormulaBase:   2,
		PeriodSeconds: 3600,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), created.ID)
	// StartTime 0 anchors at creation.
	assert.Equal(t, clk.Now().Unix(), created.StartTime)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.NumPeriods, got.NumPeriods)
	assert.Equal(t, created.StartTime, got.StartTime)

	second, err := svc.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    2,
		FormulaBase:   3,
		PeriodSeconds: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), second.ID)
}

func TestCreateCurve_Invalid(t *testing.T) {
	svc, clk := setupCurveTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, curvedomain.CreateCurveRequest{NumPeriods: 0, MinMultiplier: 0, PeriodSeconds: 60})
	assert.ErrorIs(t, err, curvedomain.ErrCurveInvalid)

	_, err = svc.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    4,
		FormulaBase:   2,
		PeriodSeconds: 60,
		StartTime:     clk.Now().Unix() + 100,
	})
	assert.ErrorIs(t, err, curvedomain.ErrCurveInvalid)
}

func TestCurrentMultiplier_AdvancesWithClock(t *testing.T) {
	svc, clk := setupCurveTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    6,
		FormulaBase:   2,
		PeriodSeconds: 3600,
	})
	require.NoError(t, err)

	for _, want := range []uint64{64, 32, 16, 8, 4, 2, 1, 0} {
		multiplier, err := svc.CurrentMultiplier(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, multiplier)
		clk.Advance(time.Hour)
	}

	_, err = svc.CurrentMultiplier(ctx, 99)
	assert.ErrorIs(t, err, curvedomain.ErrCurveNotFound)
}

func TestEnsureDefault(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&curvedomain.Curve{}))

	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	holder := config.StaticProtocolHolder(config.DefaultProtocolConfig())

	require.NoError(t, EnsureDefault(db, holder, clk, zap.NewNop()))

	var curve curvedomain.Curve
	require.NoError(t, db.First(&curve, "id = ?", 0).Error)
	assert.Equal(t, clk.Now().Unix(), curve.StartTime)

	// Seeding again leaves the existing row alone.
	clk.Advance(time.Hour)
	require.NoError(t, EnsureDefault(db, holder, clk, zap.NewNop()))

	var again curvedomain.Curve
	require.NoError(t, db.First(&again, "id = ?", 0).Error)
	assert.Equal(t, curve.StartTime, again.StartTime)
}
