package curve

import (
	"github.com/smallbiznis/tenura/internal/curve/service"
	"go.uber.org/fx"
)

var Module = fx.Module("curve.service",
	fx.Provide(service.NewService),
)
