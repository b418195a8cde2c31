package migration

import (
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	curveservice "github.com/smallbiznis/tenura/internal/curve/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, protocol *config.ProtocolHolder, clk clock.Clock, log *zap.Logger) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := AutoMigrate(conn); err != nil {
			return err
		}

		return curveservice.EnsureDefault(conn, protocol, clk, log)
	}),
)
