// Package domain declares the fiscal printer driver contract the coupon
// state machine drives. Concrete drivers talk to the serial or USB device;
// all calls block and must run on the goroutine that owns the handle.
package domain

import "github.com/shopspring/decimal"

// PaymentMethod is the printer's fixed payment-method constant.
type PaymentMethod int

const (
	PaymentMoney PaymentMethod = iota + 1
	PaymentCheck
	PaymentCustom
)

// Unit is the printer's item unit code.
type Unit int

const (
	UnitEmpty Unit = iota
	UnitLiters
	UnitKilos
	UnitMeters
	UnitCustom
)

// Capability names the driver reports maximum lengths for.
const (
	CapItemCode        = "item_code"
	CapItemDescription = "item_description"
	CapCustomerName    = "customer_name"
	CapCustomerAddress = "customer_address"
)

// Capabilities maps capability names to the maximum length the printer
// accepts for that field.
type Capabilities map[string]int

// Max returns the declared limit, or def when the printer does not declare one.
func (c Capabilities) Max(name string, def int) int {
	if v, ok := c[name]; ok && v > 0 {
		return v
	}
	return def
}

// Driver is the low-level fiscal printer protocol.
type Driver interface {
	OpenCoupon() error
	IdentifyCustomer(name, address, doc string) error
	// AddItem returns the printer-assigned line id for later cancellation.
	AddItem(code, description string, price decimal.Decimal, taxCode int, quantity decimal.Decimal, unit Unit, unitDesc string) (int, error)
	CancelItem(lineID int) error
	Totalize(discountPct, surchargePct decimal.Decimal) error
	AddPayment(method PaymentMethod, value decimal.Decimal, customCode int) error
	// CloseCoupon returns the printer-assigned coupon identifier.
	CloseCoupon() (int64, error)
	CancelCoupon() error
	Capabilities() Capabilities
}
