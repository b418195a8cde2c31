package service

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/currency"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	curveservice "github.com/smallbiznis/tenura/internal/curve/service"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rewardFixture struct {
	svc      rewarddomain.Service
	db       *gorm.DB
	clk      *clock.FakeClock
	currency *currency.MemoryProvider
	curves   curvedomain.Service
}

func setupRewardTest(t *testing.T) *rewardFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&curvedomain.Curve{}, &rewarddomain.Pool{}, &rewarddomain.Holder{}))

	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	book := currency.NewMemoryProvider()
	curves := curveservice.NewService(curveservice.Params{DB: db, Log: zap.NewNop(), Clock: clk})

	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clk,
		Currency: book,
		Curves:   curves,
	})
	return &rewardFixture{svc: svc, db: db, clk: clk, currency: book, curves: curves}
}

func (f *rewardFixture) balance(t *testing.T, account snowflake.ID) *big.Int {
	t.Helper()
	balance, err := f.svc.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return balance
}

func TestIssueAllocateClaim_WorkedExample(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()
	holder := snowflake.ID(42)

	_, err := f.curves.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    6,
		FormulaBase:   2,
		PeriodSeconds: 604800,
	})
	require.NoError(t, err)

	payment := big.NewInt(1_000_000_000_000_000_000)
	issued, err := f.svc.IssueWithCurve(ctx, holder, payment, 0)
	require.NoError(t, err)

	// Multiplier 64 at curve start.
	wantShares := new(big.Int).Mul(payment, big.NewInt(64))
	assert.Equal(t, wantShares, issued)

	require.NoError(t, f.svc.Allocate(ctx, payment))

	// Single holder: the full allocation is claimable with no rounding.
	assert.Equal(t, payment, f.balance(t, holder))

	claimed, err := f.svc.Claim(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, payment, claimed)
	assert.Equal(t, payment.Int64(), f.currency.BalanceOf(holder))

	assert.Equal(t, int64(0), f.balance(t, holder).Int64())
	_, err = f.svc.Claim(ctx, holder)
	assert.ErrorIs(t, err, rewarddomain.ErrNothingToClaim)

	pool, err := f.svc.PoolDetail(ctx)
	require.NoError(t, err)
	assert.Equal(t, payment.String(), pool.TotalRewardIngress.String())
	assert.Equal(t, payment.String(), pool.TotalRewardEgress.String())
}

func TestIssue_FairnessAtIssuance(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()
	alice, bob := snowflake.ID(1), snowflake.ID(2)

	require.NoError(t, f.svc.Issue(ctx, alice, big.NewInt(100)))
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(1000)))

	// Bob joins after the allocation and starts at exactly zero.
	require.NoError(t, f.svc.Issue(ctx, bob, big.NewInt(300)))
	assert.Equal(t, int64(0), f.balance(t, bob).Int64())
	assert.Equal(t, int64(1000), f.balance(t, alice).Int64())

	// The next allocation splits 100/300.
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(1000)))
	assert.Equal(t, int64(1250), f.balance(t, alice).Int64())
	assert.Equal(t, int64(750), f.balance(t, bob).Int64())
}

func TestConservationAndNonNegativity(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()
	holders := []snowflake.ID{1, 2, 3}

	require.NoError(t, f.svc.Issue(ctx, holders[0], big.NewInt(7)))
	require.NoError(t, f.svc.Issue(ctx, holders[1], big.NewInt(13)))
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(999)))
	require.NoError(t, f.svc.Issue(ctx, holders[2], big.NewInt(29)))
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(1234)))

	_, err := f.svc.Claim(ctx, holders[1])
	require.NoError(t, err)

	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(555)))

	pool, err := f.svc.PoolDetail(ctx)
	require.NoError(t, err)

	outstanding := big.NewInt(0)
	for _, h := range holders {
		balance := f.balance(t, h)
		assert.GreaterOrEqual(t, balance.Sign(), 0, "holder %d", h)
		outstanding.Add(outstanding, balance)
	}

	// sum(balances) + egress == ingress, up to truncation dust bounded by
	// one unit per holder per allocation.
	total := new(big.Int).Add(outstanding, pool.TotalRewardEgress.Big())
	dust := new(big.Int).Sub(pool.TotalRewardIngress.Big(), total)
	assert.GreaterOrEqual(t, dust.Sign(), 0)
	assert.LessOrEqual(t, dust.Int64(), int64(9))
}

func TestAllocate_RequiresShares(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()

	err := f.svc.Allocate(ctx, big.NewInt(100))
	assert.ErrorIs(t, err, rewarddomain.ErrAllocationWithoutShares)

	err = f.svc.Allocate(ctx, big.NewInt(0))
	assert.ErrorIs(t, err, rewarddomain.ErrInvalidAmount)
	err = f.svc.Allocate(ctx, nil)
	assert.ErrorIs(t, err, rewarddomain.ErrInvalidAmount)
}

func TestIssue_Validation(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Issue(ctx, 0, big.NewInt(10)), rewarddomain.ErrInvalidHolder)
	assert.ErrorIs(t, f.svc.Issue(ctx, 1, big.NewInt(0)), rewarddomain.ErrInvalidShares)
	assert.ErrorIs(t, f.svc.Issue(ctx, 1, nil), rewarddomain.ErrInvalidShares)
}

func TestIssueWithCurve_FullyDecayed(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()

	_, err := f.curves.Create(ctx, curvedomain.CreateCurveRequest{
		NumPeriods:    2,
		FormulaBase:   2,
		PeriodSeconds: 60,
	})
	require.NoError(t, err)

	f.clk.Advance(10 * time.Minute)

	issued, err := f.svc.IssueWithCurve(ctx, 1, big.NewInt(500), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), issued.Int64())

	// Nothing was recorded for the holder.
	_, err = f.svc.HolderDetail(ctx, 1)
	assert.ErrorIs(t, err, rewarddomain.ErrNoSharesToBurn)
}

func TestBurn_AutoClaimsAndRedistributes(t *testing.T) {
	f := setupRewardTest(t)
	ctx := context.Background()
	alice, bob := snowflake.ID(1), snowflake.ID(2)

	require.NoError(t, f.svc.Issue(ctx, alice, big.NewInt(100)))
	require.NoError(t, f.svc.Issue(ctx, bob, big.NewInt(100)))
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(1000)))

	autoClaimed, err := f.svc.Burn(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(500), autoClaimed.Int64())
	assert.Equal(t, int64(500), f.currency.BalanceOf(bob))

	_, err = f.svc.HolderDetail(ctx, bob)
	assert.ErrorIs(t, err, rewarddomain.ErrNoSharesToBurn)

	pool, err := f.svc.PoolDetail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", pool.TotalShares.String())

	// Alice now owns the whole pool; the next allocation is all hers.
	require.NoError(t, f.svc.Allocate(ctx, big.NewInt(300)))
	assert.Equal(t, int64(800), f.balance(t, alice).Int64())

	_, err = f.svc.Burn(ctx, bob)
	assert.ErrorIs(t, err, rewarddomain.ErrNoSharesToBurn)
}

func TestClaim_UnknownHolder(t *testing.T) {
	f := setupRewardTest(t)

	_, err := f.svc.Claim(context.Background(), 77)
	assert.ErrorIs(t, err, rewarddomain.ErrNothingToClaim)

	balance := f.balance(t, 77)
	assert.Equal(t, int64(0), balance.Int64())
}
