package service

import (
	"context"

	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	"github.com/smallbiznis/tenura/internal/gate"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Gate     gate.Gate
	Curves   curvedomain.Service
	Repo     tierdomain.Repository
	Protocol *config.ProtocolHolder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	gate     gate.Gate
	curves   curvedomain.Service
	repo     tierdomain.Repository
	protocol *config.ProtocolHolder
}

func NewService(p Params) tierdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tier.service"),
		clock:    p.Clock,
		gate:     p.Gate,
		curves:   p.Curves,
		repo:     p.Repo,
		protocol: p.Protocol,
	}
}

func (s *Service) Create(ctx context.Context, req tierdomain.CreateTierRequest) (tierdomain.Tier, error) {
	tier := fromRequest(req)
	if err := s.validate(ctx, tier); err != nil {
		return tierdomain.Tier{}, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		id, err := s.repo.NextID(ctx, tx)
		if err != nil {
			return err
		}
		tier.ID = id
		return s.repo.Insert(ctx, tx, &tier)
	})
	if err != nil {
		return tierdomain.Tier{}, err
	}

	s.log.Info("tier created",
		zap.Uint16("tier_id", tier.ID),
		zap.Int64("period_duration_seconds", tier.PeriodDurationSeconds),
		zap.Int64("price_per_period", tier.PricePerPeriod),
	)
	return tier, nil
}

func (s *Service) Update(ctx context.Context, req tierdomain.UpdateTierRequest) (tierdomain.Tier, error) {
	next := fromRequest(req.CreateTierRequest)
	next.ID = req.ID
	if err := s.validate(ctx, next); err != nil {
		return tierdomain.Tier{}, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if next.MaxSupply != 0 && next.MaxSupply < current.SubCount {
			return tierdomain.ErrTierInvalidSupplyCap
		}
		next.SubCount = current.SubCount
		next.CreatedAt = current.CreatedAt
		return s.repo.Save(ctx, tx, &next)
	})
	if err != nil {
		return tierdomain.Tier{}, err
	}

	s.log.Info("tier updated", zap.Uint16("tier_id", next.ID))
	return next, nil
}

func (s *Service) Get(ctx context.Context, id uint16) (tierdomain.Tier, error) {
	tier, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return tierdomain.Tier{}, err
	}
	return *tier, nil
}

func (s *Service) List(ctx context.Context) ([]tierdomain.Tier, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) validate(ctx context.Context, tier tierdomain.Tier) error {
	now := s.clock.Now().Unix()
	if err := tier.Validate(now, s.protocol.Current().RewardBasisPointsCap); err != nil {
		return err
	}
	if err := s.gate.ValidateRef(tier.GateRef); err != nil {
		return err
	}
	if tier.RewardBasisPoints > 0 {
		// Reward-bearing tiers must reference an existing curve.
		if _, err := s.curves.Get(ctx, tier.CurveID); err != nil {
			return err
		}
	}
	return nil
}

func fromRequest(req tierdomain.CreateTierRequest) tierdomain.Tier {
	return tierdomain.Tier{
		PeriodDurationSeconds: req.PeriodDurationSeconds,
		MaxSupply:             req.MaxSupply,
		MaxCommitmentSeconds:  req.MaxCommitmentSeconds,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		CurveID:               req.CurveID,
		RewardBasisPoints:     req.RewardBasisPoints,
		Paused:                req.Paused,
		Transferable:          req.Transferable,
		InitialMintPrice:      req.InitialMintPrice,
		PricePerPeriod:        req.PricePerPeriod,
		GateRef:               req.GateRef,
		Metadata:              req.Metadata,
	}
}
