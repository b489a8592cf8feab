package domain

import (
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/shopspring/decimal"
)

// ItemHandle retains the printer-assigned line id so an added item can be
// cancelled individually later.
type ItemHandle struct {
	LineID int
	Code   string
}

// AppliedPayment is one payment already accepted by the printer.
type AppliedPayment struct {
	Kind  saledomain.PaymentKind
	Value decimal.Decimal
}

// Coupon accumulates everything printed so far on the open coupon.
type Coupon struct {
	State    State
	Items    []ItemHandle
	Customer *saledomain.Party
	Payments []AppliedPayment

	// CouponID is the printer-assigned identifier, set on close.
	CouponID int64
}

// Printable reports whether any item actually reached the printer.
func (c Coupon) Printable() bool {
	return len(c.Items) > 0
}
