package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/currency"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	obsmetrics "github.com/smallbiznis/tenura/internal/observability/metrics"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	"github.com/smallbiznis/tenura/pkg/numeric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Currency currency.Provider
	Curves   curvedomain.Service
	Metrics  *obsmetrics.Ledger `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	currency currency.Provider
	curves   curvedomain.Service
	metrics  *obsmetrics.Ledger
}

func NewService(p Params) rewarddomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reward.service"),
		clock:    p.Clock,
		currency: p.Currency,
		curves:   p.Curves,
		metrics:  p.Metrics,
	}
}

func (s *Service) WithTx(tx *gorm.DB) rewarddomain.Service {
	joined := *s
	joined.db = tx
	// Curve lookups during issuance must ride the same transaction.
	joined.curves = s.curves.WithTx(tx)
	return &joined
}

func (s *Service) Issue(ctx context.Context, account snowflake.ID, shares *big.Int) error {
	if account == 0 {
		return rewarddomain.ErrInvalidHolder
	}
	if shares == nil || shares.Sign() <= 0 {
		return rewarddomain.ErrInvalidShares
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := s.poolForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		holder, err := s.holderForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if holder == nil {
			holder = &rewarddomain.Holder{AccountID: account}
		}

		// The correction cancels all allocation history before this issuance,
		// so the new shares start with a zero claimable balance.
		correction := new(big.Int).Mul(pool.PointsPerShare.Big(), shares)
		holder.PointsCorrection.Set(new(big.Int).Sub(holder.PointsCorrection.Big(), correction))
		holder.NumShares.Set(new(big.Int).Add(holder.NumShares.Big(), shares))
		pool.TotalShares.Set(new(big.Int).Add(pool.TotalShares.Big(), shares))

		if err := tx.WithContext(ctx).Save(holder).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Save(pool).Error
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveSharesIssued(shares)
	s.log.Debug("shares issued",
		zap.String("account_id", account.String()),
		zap.String("shares", shares.String()),
	)
	return nil
}

func (s *Service) IssueWithCurve(ctx context.Context, account snowflake.ID, baseShares *big.Int, curveID uint8) (*big.Int, error) {
	if baseShares == nil || baseShares.Sign() <= 0 {
		return nil, rewarddomain.ErrInvalidShares
	}

	multiplier, err := s.curves.CurrentMultiplier(ctx, curveID)
	if err != nil {
		return nil, err
	}
	if multiplier == 0 {
		// Fully decayed curve: the purchase carries no reward weight.
		return big.NewInt(0), nil
	}

	shares := new(big.Int).Mul(baseShares, new(big.Int).SetUint64(multiplier))
	if err := s.Issue(ctx, account, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (s *Service) Allocate(ctx context.Context, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return rewarddomain.ErrInvalidAmount
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := s.poolForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if pool.TotalShares.IsZero() {
			return rewarddomain.ErrAllocationWithoutShares
		}

		delta := new(big.Int).Mul(amount, rewarddomain.PointsScale)
		delta.Quo(delta, pool.TotalShares.Big())
		pool.PointsPerShare.Set(new(big.Int).Add(pool.PointsPerShare.Big(), delta))
		pool.TotalRewardIngress.Set(new(big.Int).Add(pool.TotalRewardIngress.Big(), amount))

		return tx.WithContext(ctx).Save(pool).Error
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveRewardIngress(amount)
	return nil
}

func (s *Service) BalanceOf(ctx context.Context, account snowflake.ID) (*big.Int, error) {
	pool, err := s.PoolDetail(ctx)
	if err != nil {
		return nil, err
	}
	var holder rewarddomain.Holder
	err = s.db.WithContext(ctx).First(&holder, "account_id = ?", account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return holder.Balance(pool.PointsPerShare.Big()), nil
}

func (s *Service) Claim(ctx context.Context, account snowflake.ID) (*big.Int, error) {
	var payout *big.Int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := s.poolForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		holder, err := s.holderForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if holder == nil {
			return rewarddomain.ErrNothingToClaim
		}

		balance := holder.Balance(pool.PointsPerShare.Big())
		if balance.Sign() <= 0 {
			return rewarddomain.ErrNothingToClaim
		}
		if !balance.IsInt64() {
			return rewarddomain.ErrInvalidAmount
		}

		holder.RewardsWithdrawn.Set(new(big.Int).Add(holder.RewardsWithdrawn.Big(), balance))
		pool.TotalRewardEgress.Set(new(big.Int).Add(pool.TotalRewardEgress.Big(), balance))
		if err := tx.WithContext(ctx).Save(holder).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(pool).Error; err != nil {
			return err
		}
		payout = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	// State is committed before the transfer so a re-entrant callback
	// observes the withdrawn balance.
	if err := s.currency.TransferOut(ctx, account, payout.Int64()); err != nil {
		s.log.Error("reward payout transfer failed",
			zap.String("account_id", account.String()),
			zap.String("amount", payout.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.ObserveRewardEgress(payout)
	return payout, nil
}

func (s *Service) Burn(ctx context.Context, account snowflake.ID) (*big.Int, error) {
	claimed := big.NewInt(0)
	var burned *big.Int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := s.poolForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		holder, err := s.holderForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if holder == nil || holder.NumShares.Sign() <= 0 {
			return rewarddomain.ErrNoSharesToBurn
		}

		// Pay out anything pending before destroying the claim on it.
		balance := holder.Balance(pool.PointsPerShare.Big())
		if balance.Sign() > 0 {
			if !balance.IsInt64() {
				return rewarddomain.ErrInvalidAmount
			}
			pool.TotalRewardEgress.Set(new(big.Int).Add(pool.TotalRewardEgress.Big(), balance))
			claimed = balance
		}

		burned = holder.NumShares.Big()
		pool.TotalShares.Set(new(big.Int).Sub(pool.TotalShares.Big(), burned))

		if err := tx.WithContext(ctx).Delete(&rewarddomain.Holder{}, "account_id = ?", account).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Save(pool).Error
	})
	if err != nil {
		return nil, err
	}

	if claimed.Sign() > 0 {
		if err := s.currency.TransferOut(ctx, account, claimed.Int64()); err != nil {
			s.log.Error("burn payout transfer failed",
				zap.String("account_id", account.String()),
				zap.String("amount", claimed.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	s.metrics.ObserveSharesBurned(burned)
	s.metrics.ObserveRewardEgress(claimed)
	s.log.Info("shares burned",
		zap.String("account_id", account.String()),
		zap.String("shares", burned.String()),
		zap.String("auto_claimed", claimed.String()),
	)
	return claimed, nil
}

func (s *Service) PoolDetail(ctx context.Context) (rewarddomain.Pool, error) {
	var pool rewarddomain.Pool
	err := s.db.WithContext(ctx).First(&pool, "id = ?", rewarddomain.PoolID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rewarddomain.Pool{ID: rewarddomain.PoolID}, nil
		}
		return rewarddomain.Pool{}, err
	}
	return pool, nil
}

func (s *Service) HolderDetail(ctx context.Context, account snowflake.ID) (rewarddomain.Holder, error) {
	var holder rewarddomain.Holder
	err := s.db.WithContext(ctx).First(&holder, "account_id = ?", account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rewarddomain.Holder{}, rewarddomain.ErrNoSharesToBurn
		}
		return rewarddomain.Holder{}, err
	}
	return holder, nil
}

func (s *Service) poolForUpdate(ctx context.Context, tx *gorm.DB) (*rewarddomain.Pool, error) {
	pool := rewarddomain.Pool{ID: rewarddomain.PoolID}
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pool, "id = ?", rewarddomain.PoolID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		pool = rewarddomain.Pool{
			ID:                 rewarddomain.PoolID,
			TotalShares:        numeric.NewInt(0),
			PointsPerShare:     numeric.NewInt(0),
			TotalRewardIngress: numeric.NewInt(0),
			TotalRewardEgress:  numeric.NewInt(0),
		}
		if err := tx.WithContext(ctx).Create(&pool).Error; err != nil {
			return nil, err
		}
	}
	return &pool, nil
}

func (s *Service) holderForUpdate(ctx context.Context, tx *gorm.DB, account snowflake.ID) (*rewarddomain.Holder, error) {
	var holder rewarddomain.Holder
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&holder, "account_id = ?", account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &holder, nil
}
