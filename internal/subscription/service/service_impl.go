package service

import (
	"context"
	"errors"
	"math/big"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	"github.com/smallbiznis/tenura/internal/currency"
	"github.com/smallbiznis/tenura/internal/gate"
	obsmetrics "github.com/smallbiznis/tenura/internal/observability/metrics"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	subscriptiondomain "github.com/smallbiznis/tenura/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const basisPointsDenominator = 10000

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     subscriptiondomain.Repository
	TierRepo tierdomain.Repository
	Gate     gate.Gate
	Currency currency.Provider
	Rewards  rewarddomain.Service
	Protocol *config.ProtocolHolder
	Metrics  *obsmetrics.Ledger `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     subscriptiondomain.Repository
	tiers    tierdomain.Repository
	gate     gate.Gate
	currency currency.Provider
	rewards  rewarddomain.Service
	protocol *config.ProtocolHolder
	metrics  *obsmetrics.Ledger
}

func NewService(p Params) subscriptiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		tiers:    p.TierRepo,
		gate:     p.Gate,
		currency: p.Currency,
		rewards:  p.Rewards,
		protocol: p.Protocol,
		metrics:  p.Metrics,
	}
}

// Purchase implements domain.Service.
func (s *Service) Purchase(ctx context.Context, req subscriptiondomain.PurchaseRequest) (subscriptiondomain.PurchaseResult, error) {
	if req.AccountID == 0 {
		return subscriptiondomain.PurchaseResult{}, subscriptiondomain.ErrInvalidAccount
	}
	if req.TierID == 0 {
		return subscriptiondomain.PurchaseResult{}, tierdomain.ErrTierNotFound
	}

	captured, err := s.currency.Capture(ctx, req.AccountID, req.PaymentAmount)
	if err != nil {
		return subscriptiondomain.PurchaseResult{}, err
	}

	var result subscriptiondomain.PurchaseResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		tier, err := s.tiers.FindByIDForUpdate(ctx, tx, req.TierID)
		if err != nil {
			return err
		}
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		joining := sub == nil || sub.TierID != req.TierID

		payment := captured
		var fromTier *tierdomain.Tier
		if joining {
			if err := tier.CheckJoin(captured, now); err != nil {
				return err
			}
			if tier.GateRef != "" {
				if err := s.gate.CheckAccount(ctx, tier.GateRef, req.AccountID); err != nil {
					return err
				}
			}
			payment -= tier.InitialMintPrice
			if sub != nil && sub.TierID != 0 {
				fromTier, err = s.tiers.FindByID(ctx, tx, sub.TierID)
				if err != nil {
					return err
				}
			}
		}

		created := false
		if sub == nil {
			sub = &subscriptiondomain.Subscription{
				AccountID: req.AccountID,
				TokenID:   s.genID.Generate(),
			}
			created = true
		}

		if fromTier != nil {
			// Purchase-driven switch: re-denominate purchased time at equal
			// value and drop tier-specific grants.
			converted := tierdomain.SwitchTimeValue(*tier, *fromTier, sub.PurchasedRemainingAt(now))
			sub.SetPurchasedRemaining(now, converted)
			sub.ClearGranted(now)
		}

		seconds, err := tier.CheckRenewal(sub.RemainingAt(now), payment, now)
		if err != nil {
			return err
		}

		sub.AddPurchasedAt(now, seconds)
		sub.TierID = req.TierID
		sub.TotalPurchased += captured

		if created {
			if err := s.repo.Insert(ctx, tx, sub); err != nil {
				return err
			}
		} else if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}

		if joining {
			if err := s.tiers.AdjustSubCount(ctx, tx, req.TierID, 1); err != nil {
				return err
			}
			if fromTier != nil {
				if err := s.tiers.AdjustSubCount(ctx, tx, fromTier.ID, -1); err != nil {
					return err
				}
			}
		}

		var issued *big.Int
		if tier.RewardBasisPoints > 0 && payment > 0 {
			issued, err = s.issueRewards(ctx, tx, req.AccountID, payment, *tier)
			if err != nil {
				return err
			}
		}

		result = subscriptiondomain.PurchaseResult{
			SecondsAdded: seconds,
			ExpiresAt:    sub.ExpiresAt(),
			SharesIssued: issued,
		}
		return nil
	})
	if err != nil {
		// The operation consumed nothing; hand the captured value back.
		if captured > 0 {
			if rerr := s.currency.TransferOut(ctx, req.AccountID, captured); rerr != nil {
				s.log.Error("failed to return captured payment after rejected purchase",
					zap.String("account_id", req.AccountID.String()),
					zap.Int64("amount", captured),
					zap.Error(rerr),
				)
			}
		}
		return subscriptiondomain.PurchaseResult{}, err
	}

	s.metrics.ObservePurchase(strconv.Itoa(int(req.TierID)), result.SecondsAdded)
	s.log.Info("purchase settled",
		zap.String("account_id", req.AccountID.String()),
		zap.Uint16("tier_id", req.TierID),
		zap.Int64("captured", captured),
		zap.Int64("seconds_added", result.SecondsAdded),
		zap.Int64("expires_at", result.ExpiresAt),
	)
	return result, nil
}

// issueRewards issues curve-weighted shares for the payment and routes the
// tier's basis-point cut into the pool, all on the purchase transaction.
func (s *Service) issueRewards(ctx context.Context, tx *gorm.DB, account snowflake.ID, payment int64, tier tierdomain.Tier) (*big.Int, error) {
	rewards := s.rewards.WithTx(tx)

	issued, err := rewards.IssueWithCurve(ctx, account, big.NewInt(payment), tier.CurveID)
	if err != nil {
		return nil, err
	}

	cut := new(big.Int).Mul(big.NewInt(payment), big.NewInt(int64(tier.RewardBasisPoints)))
	cut.Quo(cut, big.NewInt(basisPointsDenominator))
	if cut.Sign() <= 0 {
		return issued, nil
	}

	err = rewards.Allocate(ctx, cut)
	if err != nil {
		// A fully decayed curve can leave the pool with zero shares; the cut
		// then stays in custody rather than stranding in the pool.
		if errors.Is(err, rewarddomain.ErrAllocationWithoutShares) {
			s.log.Debug("skipping reward allocation, pool has no shares",
				zap.String("amount", cut.String()),
			)
			return issued, nil
		}
		return nil, err
	}
	return issued, nil
}

// Grant implements domain.Service.
func (s *Service) Grant(ctx context.Context, req subscriptiondomain.GrantRequest) (subscriptiondomain.Subscription, error) {
	if req.AccountID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidAccount
	}
	if req.Seconds < 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrGrantInvalidTime
	}

	var out subscriptiondomain.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}

		tierID := req.TierID
		if tierID == 0 {
			if sub != nil && sub.TierID != 0 {
				tierID = sub.TierID
			} else {
				tierID = s.protocol.Current().DefaultGrantTier
			}
		}
		tier, err := s.tiers.FindByIDForUpdate(ctx, tx, tierID)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		// A zero-second grant only makes sense as a pure tier switch.
		switching := sub != nil && sub.TierID != 0 && sub.TierID != tierID
		if req.Seconds == 0 && !switching {
			return subscriptiondomain.ErrGrantInvalidTime
		}
		attaching := sub == nil || sub.TierID == 0

		created := false
		if sub == nil {
			sub = &subscriptiondomain.Subscription{
				AccountID: req.AccountID,
				TokenID:   s.genID.Generate(),
			}
			created = true
		}

		if switching {
			fromTier, err := s.tiers.FindByID(ctx, tx, sub.TierID)
			if err != nil {
				return err
			}
			converted := tierdomain.SwitchTimeValue(*tier, *fromTier, sub.PurchasedRemainingAt(now))
			sub.SetPurchasedRemaining(now, converted)
			sub.ClearGranted(now)
			if err := s.tiers.AdjustSubCount(ctx, tx, fromTier.ID, -1); err != nil {
				return err
			}
		}
		if attaching || switching {
			if err := s.tiers.AdjustSubCount(ctx, tx, tier.ID, 1); err != nil {
				return err
			}
		}

		sub.TierID = tierID
		if req.Seconds > 0 {
			sub.AddGrantedAt(now, req.Seconds)
		}

		if created {
			if err := s.repo.Insert(ctx, tx, sub); err != nil {
				return err
			}
		} else if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.metrics.ObserveGrant(req.Seconds)
	s.log.Info("time granted",
		zap.String("account_id", req.AccountID.String()),
		zap.Uint16("tier_id", out.TierID),
		zap.Int64("seconds", req.Seconds),
	)
	return out, nil
}

// RevokeTime implements domain.Service.
func (s *Service) RevokeTime(ctx context.Context, account snowflake.ID) (int64, error) {
	var revoked int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		revoked = sub.ClearGranted(s.clock.Now().Unix())
		return s.repo.Save(ctx, tx, sub)
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("granted time revoked",
		zap.String("account_id", account.String()),
		zap.Int64("seconds", revoked),
	)
	return revoked, nil
}

// Refund implements domain.Service.
func (s *Service) Refund(ctx context.Context, account snowflake.ID, amount int64) (subscriptiondomain.RefundResult, error) {
	if account == 0 {
		return subscriptiondomain.RefundResult{}, subscriptiondomain.ErrInvalidAccount
	}
	if amount < 0 {
		return subscriptiondomain.RefundResult{}, currency.ErrInvalidAmount
	}

	var result subscriptiondomain.RefundResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if sub.SecondsPurchased <= 0 {
			return subscriptiondomain.ErrNothingToRefund
		}

		now := s.clock.Now().Unix()
		if amount == 0 {
			// Time-proportional estimate over the purchased seconds.
			est := big.NewInt(sub.TotalPurchased)
			est.Mul(est, big.NewInt(sub.PurchasedRemainingAt(now)))
			est.Quo(est, big.NewInt(sub.SecondsPurchased))
			amount = est.Int64()
		}

		seconds := sub.ClearPurchased(now)
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		result = subscriptiondomain.RefundResult{Amount: amount, Seconds: seconds}
		return nil
	})
	if err != nil {
		return subscriptiondomain.RefundResult{}, err
	}

	// Ledger state is committed before value moves.
	if result.Amount > 0 {
		if err := s.currency.TransferOut(ctx, account, result.Amount); err != nil {
			s.log.Error("refund transfer failed",
				zap.String("account_id", account.String()),
				zap.Int64("amount", result.Amount),
				zap.Error(err),
			)
			return subscriptiondomain.RefundResult{}, err
		}
	}

	s.metrics.ObserveRefund()
	s.log.Info("purchase refunded",
		zap.String("account_id", account.String()),
		zap.Int64("amount", result.Amount),
		zap.Int64("seconds", result.Seconds),
	)
	return result, nil
}

// SwitchTier implements domain.Service.
func (s *Service) SwitchTier(ctx context.Context, account snowflake.ID, tierID uint16) (subscriptiondomain.Subscription, error) {
	if tierID == 0 {
		return subscriptiondomain.Subscription{}, tierdomain.ErrTierNotFound
	}

	var out subscriptiondomain.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if sub.TierID == tierID {
			out = *sub
			return nil
		}

		to, err := s.tiers.FindByIDForUpdate(ctx, tx, tierID)
		if err != nil {
			return err
		}

		now := s.clock.Now().Unix()
		if sub.TierID != 0 {
			from, err := s.tiers.FindByID(ctx, tx, sub.TierID)
			if err != nil {
				return err
			}
			converted := tierdomain.SwitchTimeValue(*to, *from, sub.PurchasedRemainingAt(now))
			sub.SetPurchasedRemaining(now, converted)
			if err := s.tiers.AdjustSubCount(ctx, tx, from.ID, -1); err != nil {
				return err
			}
		}
		// Grants are perks of the tier they were issued on.
		sub.ClearGranted(now)
		sub.TierID = tierID

		if err := s.tiers.AdjustSubCount(ctx, tx, to.ID, 1); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return out, nil
}

// Deactivate implements domain.Service.
func (s *Service) Deactivate(ctx context.Context, account snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByAccountForUpdate(ctx, tx, account)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if sub.TierID == 0 {
			return nil
		}
		if sub.RemainingAt(s.clock.Now().Unix()) > 0 {
			return subscriptiondomain.ErrDeactivationFailure
		}

		if err := s.tiers.AdjustSubCount(ctx, tx, sub.TierID, -1); err != nil {
			return err
		}
		sub.TierID = 0
		return s.repo.Save(ctx, tx, sub)
	})
}

// RemainingSeconds implements domain.Service. Unknown accounts read as zero.
func (s *Service) RemainingSeconds(ctx context.Context, account snowflake.ID) (int64, error) {
	sub, err := s.repo.FindByAccount(ctx, s.db, account)
	if err != nil {
		return 0, err
	}
	if sub == nil {
		return 0, nil
	}
	return sub.RemainingAt(s.clock.Now().Unix()), nil
}

// Detail implements domain.Service.
func (s *Service) Detail(ctx context.Context, account snowflake.ID) (subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByAccount(ctx, s.db, account)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if sub == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}
