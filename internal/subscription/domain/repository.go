package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	Save(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByAccount(ctx context.Context, db *gorm.DB, account snowflake.ID) (*Subscription, error)
	FindByAccountForUpdate(ctx context.Context, db *gorm.DB, account snowflake.ID) (*Subscription, error)
}
