package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	subscriptiondomain "github.com/smallbiznis/tenura/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded schema so a fresh postgres deployment
// is usable out of the box.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema through gorm for the sqlite and mysql
// backends the embedded postgres migrations do not cover.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&curvedomain.Curve{},
		&tierdomain.Tier{},
		&subscriptiondomain.Subscription{},
		&rewarddomain.Pool{},
		&rewarddomain.Holder{},
	); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return ensurePoolRow(conn)
}

func ensurePoolRow(conn *gorm.DB) error {
	pool := rewarddomain.Pool{ID: rewarddomain.PoolID}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&pool).Error
}
