package coupon

import (
	"github.com/pdvlabs/fiscal/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.session",
	fx.Provide(service.NewSession),
)
