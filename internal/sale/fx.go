package sale

import (
	"github.com/pdvlabs/fiscal/internal/sale/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("sale.store",
	fx.Provide(repository.NewStore),
)
