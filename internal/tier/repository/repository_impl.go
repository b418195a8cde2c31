package repository

import (
	"context"
	"errors"

	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *tierdomain.Tier) error {
	return db.WithContext(ctx).Create(tier).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, tier *tierdomain.Tier) error {
	return db.WithContext(ctx).Save(tier).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uint16) (*tierdomain.Tier, error) {
	var tier tierdomain.Tier
	err := db.WithContext(ctx).First(&tier, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tierdomain.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uint16) (*tierdomain.Tier, error) {
	var tier tierdomain.Tier
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tier, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tierdomain.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tierdomain.Tier, error) {
	var tiers []tierdomain.Tier
	err := db.WithContext(ctx).Order("id").Find(&tiers).Error
	return tiers, err
}

func (r *repo) NextID(ctx context.Context, db *gorm.DB) (uint16, error) {
	var maxID int64
	err := db.WithContext(ctx).
		Model(&tierdomain.Tier{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	if maxID >= 65535 {
		return 0, tierdomain.ErrTierIDsExhausted
	}
	return uint16(maxID) + 1, nil
}

func (r *repo) AdjustSubCount(ctx context.Context, db *gorm.DB, id uint16, delta int) error {
	return db.WithContext(ctx).
		Model(&tierdomain.Tier{}).
		Where("id = ?", id).
		UpdateColumn("sub_count", gorm.Expr("sub_count + ?", delta)).Error
}
