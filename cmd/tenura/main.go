package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenura/internal/clock"
	"github.com/smallbiznis/tenura/internal/config"
	"github.com/smallbiznis/tenura/internal/currency"
	"github.com/smallbiznis/tenura/internal/curve"
	"github.com/smallbiznis/tenura/internal/gate"
	"github.com/smallbiznis/tenura/internal/logger"
	"github.com/smallbiznis/tenura/internal/migration"
	"github.com/smallbiznis/tenura/internal/observability/metrics"
	"github.com/smallbiznis/tenura/internal/reward"
	"github.com/smallbiznis/tenura/internal/server"
	"github.com/smallbiznis/tenura/internal/subscription"
	"github.com/smallbiznis/tenura/internal/tier"
	"github.com/smallbiznis/tenura/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		currency.Module,
		gate.Module,

		curve.Module,
		tier.Module,
		subscription.Module,
		reward.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		panic(err)
	}
	return node
}
