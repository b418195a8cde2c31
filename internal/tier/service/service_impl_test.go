package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	curveservice "github.com/smallbiznis/tenura/internal/curve/service"
	"github.com/smallbiznis/tenura/internal/gate"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	tierrepository "github.com/smallbiznis/tenura/internal/tier/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTierTest(t *testing.T) (tierdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&curvedomain.Curve{}, &tierdomain.Tier{}))

	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	holder := config.StaticProtocolHolder(config.DefaultProtocolConfig())

	curves := curveservice.NewService(curveservice.Params{DB: db, Log: zap.NewNop(), Clock: clk})
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clk,
		Gate:     gate.Open(),
		Curves:   curves,
		Repo:     tierrepository.Provide(),
		Protocol: holder,
	})
	return svc, db, clk
}

func TestCreateTier_AssignsSequentialIDs(t *testing.T) {
	svc, _, _ := setupTierTest(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 3600,
		PricePerPeriod:        8,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(1), first.ID)

	second, err := svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(2), second.ID)
}

func TestCreateTier_IDSpaceExhausted(t *testing.T) {
	svc, db, _ := setupTierTest(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&tierdomain.Tier{
		ID:                    65535,
		PeriodDurationSeconds: 60,
	}).Error)

	_, err := svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 60,
	})
	assert.ErrorIs(t, err, tierdomain.ErrTierIDsExhausted)
}

func TestCreateTier_Validation(t *testing.T) {
	svc, _, clk := setupTierTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, tierdomain.CreateTierRequest{PeriodDurationSeconds: 0})
	assert.ErrorIs(t, err, tierdomain.ErrTierInvalidDuration)

	_, err = svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 3600,
		EndTime:               clk.Now().Unix() - 10,
	})
	assert.ErrorIs(t, err, tierdomain.ErrTierInvalidTiming)

	// A reward-bearing tier needs its curve registered first.
	_, err = svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 3600,
		RewardBasisPoints:     500,
		CurveID:               7,
	})
	assert.ErrorIs(t, err, curvedomain.ErrCurveNotFound)
}

func TestUpdateTier_SupplyCapBelowSubscribers(t *testing.T) {
	svc, db, _ := setupTierTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, tierdomain.CreateTierRequest{
		PeriodDurationSeconds: 3600,
		MaxSupply:             100,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&tierdomain.Tier{}).
		Where("id = ?", created.ID).
		UpdateColumn("sub_count", 5).Error)

	_, err = svc.Update(ctx, tierdomain.UpdateTierRequest{
		ID: created.ID,
		CreateTierRequest: tierdomain.CreateTierRequest{
			PeriodDurationSeconds: 3600,
			MaxSupply:             4,
		},
	})
	assert.ErrorIs(t, err, tierdomain.ErrTierInvalidSupplyCap)

	updated, err := svc.Update(ctx, tierdomain.UpdateTierRequest{
		ID: created.ID,
		CreateTierRequest: tierdomain.CreateTierRequest{
			PeriodDurationSeconds: 7200,
			MaxSupply:             5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7200), updated.PeriodDurationSeconds)
	// Live subscriber count survives the update.
	assert.Equal(t, uint32(5), updated.SubCount)

	_, err = svc.Update(ctx, tierdomain.UpdateTierRequest{
		ID:                999,
		CreateTierRequest: tierdomain.CreateTierRequest{PeriodDurationSeconds: 3600},
	})
	assert.ErrorIs(t, err, tierdomain.ErrTierNotFound)
}
