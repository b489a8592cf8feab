package paymentmethod

import (
	"github.com/pdvlabs/fiscal/internal/paymentmethod/domain"
	"github.com/pdvlabs/fiscal/internal/paymentmethod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentmethod.service",
	fx.Provide(
		service.NewService,
		func(s domain.Service) domain.Map { return s },
	),
)
