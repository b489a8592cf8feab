package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Store is the single-writer interface through which the core persists its
// two external effects: the generated document and the printer-assigned
// coupon identifier. Cancelling the last printed coupon also marks the sale
// cancelled here.
type Store interface {
	SaveDocument(ctx context.Context, saleID snowflake.ID, accessKey string, xml []byte) error
	SetCouponID(ctx context.Context, saleID snowflake.ID, couponID int64) error
	MarkCancelled(ctx context.Context, saleID snowflake.ID) error
	Get(ctx context.Context, saleID snowflake.ID) (*FiscalRecord, error)
}
