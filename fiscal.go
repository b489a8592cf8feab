// Package fiscal composes the fiscal core for embedding point-of-sale
// applications: NF-e document assembly, the coupon state machine and the
// persistence of their effects.
//
// The embedder supplies the pieces that touch its own environment: a
// printer/domain.Driver for the device on the station and a
// printer/domain.Notifier for operator prompts.
package fiscal

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pdvlabs/fiscal/internal/clock"
	"github.com/pdvlabs/fiscal/internal/config"
	"github.com/pdvlabs/fiscal/internal/coupon"
	"github.com/pdvlabs/fiscal/internal/nfe"
	"github.com/pdvlabs/fiscal/internal/observability"
	"github.com/pdvlabs/fiscal/internal/paymentmethod"
	"github.com/pdvlabs/fiscal/internal/sale"
	"github.com/pdvlabs/fiscal/pkg/db"
	"github.com/pdvlabs/fiscal/pkg/log"
	"go.uber.org/fx"
)

// Core wires document assembly and the coupon session without any database.
// Embedders that only print coupons and keep the XML themselves use this
// alone, supplying a Driver and a Notifier.
var Core = fx.Options(
	config.Module,
	log.Module,
	clock.Module,
	observability.Module,
	nfe.Module,
	coupon.Module,
)

// Persistence adds the gorm-backed fiscal record store and the payment
// method mapping table on top of Core.
var Persistence = fx.Options(
	db.Module,
	fx.Provide(NewNode),
	sale.Module,
	paymentmethod.Module,
)

// Module is the full composition.
var Module = fx.Options(Core, Persistence)

// NewNode builds the snowflake node used for persisted record ids.
func NewNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
