package service

import (
	"context"
	"errors"

	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) curvedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("curve.service"),
		clock: p.Clock,
	}
}

func (s *Service) WithTx(tx *gorm.DB) curvedomain.Service {
	joined := *s
	joined.db = tx
	return &joined
}

func (s *Service) Create(ctx context.Context, req curvedomain.CreateCurveRequest) (curvedomain.Curve, error) {
	now := s.clock.Now().Unix()

	curve := curvedomain.Curve{
		NumPeriods:    req.NumPeriods,
		FormulaBase:   req.FormulaBase,
		PeriodSeconds: req.PeriodSeconds,
		StartTime:     req.StartTime,
		MinMultiplier: req.MinMultiplier,
	}
	if curve.StartTime == 0 {
		curve.StartTime = now
	}
	if err := curve.Validate(now); err != nil {
		return curvedomain.Curve{}, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&curvedomain.Curve{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 255 {
			return curvedomain.ErrCurveInvalid
		}
		curve.ID = uint8(count)
		return tx.WithContext(ctx).Create(&curve).Error
	})
	if err != nil {
		return curvedomain.Curve{}, err
	}

	s.log.Info("curve created",
		zap.Uint8("curve_id", curve.ID),
		zap.Uint16("num_periods", curve.NumPeriods),
		zap.Uint8("formula_base", curve.FormulaBase),
	)
	return curve, nil
}

func (s *Service) Get(ctx context.Context, id uint8) (curvedomain.Curve, error) {
	var curve curvedomain.Curve
	err := s.db.WithContext(ctx).First(&curve, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return curvedomain.Curve{}, curvedomain.ErrCurveNotFound
		}
		return curvedomain.Curve{}, err
	}
	return curve, nil
}

func (s *Service) CurrentMultiplier(ctx context.Context, id uint8) (uint64, error) {
	curve, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return curve.MultiplierAt(s.clock.Now().Unix()), nil
}

// EnsureDefault seeds curve 0 from protocol config when the registry is empty,
// so reward-bearing tiers work out of the box.
func EnsureDefault(db *gorm.DB, holder *config.ProtocolHolder, c clock.Clock, log *zap.Logger) error {
	defaults := holder.Current().DefaultCurve
	curve := curvedomain.Curve{
		ID:            0,
		NumPeriods:    defaults.NumPeriods,
		FormulaBase:   defaults.FormulaBase,
		PeriodSeconds: defaults.PeriodSeconds,
		StartTime:     c.Now().Unix(),
		MinMultiplier: defaults.MinMultiplier,
	}
	if err := curve.Validate(curve.StartTime); err != nil {
		return err
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&curve)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info("default curve seeded", zap.Uint16("num_periods", curve.NumPeriods))
	}
	return nil
}
