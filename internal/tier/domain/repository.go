package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *Tier) error
	Save(ctx context.Context, db *gorm.DB, tier *Tier) error
	FindByID(ctx context.Context, db *gorm.DB, id uint16) (*Tier, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uint16) (*Tier, error)
	List(ctx context.Context, db *gorm.DB) ([]Tier, error)
	// NextID returns the next unused tier id. Ids are never reused, so this
	// is max(id)+1, not count+1.
	NextID(ctx context.Context, db *gorm.DB) (uint16, error)
	// AdjustSubCount moves the live subscriber counter by delta.
	AdjustSubCount(ctx context.Context, db *gorm.DB, id uint16, delta int) error
}
