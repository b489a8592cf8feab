package nfe

import (
	"github.com/pdvlabs/fiscal/internal/nfe/service"
	"go.uber.org/fx"
)

var Module = fx.Module("nfe.assembler",
	fx.Provide(service.NewService),
)
