// Package service drives a fiscal printer through the mandated coupon
// sequence and reconciles the printed coupon with the in-memory sale.
package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/pdvlabs/fiscal/internal/coupon/domain"
	obsmetrics "github.com/pdvlabs/fiscal/internal/observability/metrics"
	paymentmethoddomain "github.com/pdvlabs/fiscal/internal/paymentmethod/domain"
	printerdomain "github.com/pdvlabs/fiscal/internal/printer/domain"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Default lengths used when the printer does not declare a capability.
const (
	defaultCodeLen    = 14
	defaultDescLen    = 29
	defaultNameLen    = 30
	defaultAddressLen = 80
)

type SessionParam struct {
	fx.In

	Log      *zap.Logger
	Driver   printerdomain.Driver
	Notifier printerdomain.Notifier
	Methods  paymentmethoddomain.Map `optional:"true"`
	Store    saledomain.Store        `optional:"true"`
	Metrics  *obsmetrics.Metrics     `optional:"true"`
}

// Session owns the printer handle for exactly one coupon at a time. It is
// not reentrant: every call must come from the goroutine that owns the
// printer.
type Session struct {
	log      *zap.Logger
	driver   printerdomain.Driver
	notifier printerdomain.Notifier
	methods  paymentmethoddomain.Map
	store    saledomain.Store
	metrics  *obsmetrics.Metrics

	state  coupondomain.State
	coupon coupondomain.Coupon
	sale   *saledomain.Sale

	lastSaleID   snowflake.ID
	lastCouponID int64
	hasLast      bool
}

func NewSession(p SessionParam) *Session {
	return &Session{
		log:      p.Log.Named("coupon.session"),
		driver:   p.Driver,
		notifier: p.Notifier,
		methods:  p.Methods,
		store:    p.Store,
		metrics:  p.Metrics,
		state:    coupondomain.StateIdle,
	}
}

// State exposes the current lifecycle state.
func (s *Session) State() coupondomain.State { return s.state }

// Coupon returns a copy of the accumulated coupon.
func (s *Session) Coupon() coupondomain.Coupon { return s.coupon }

// Open starts a coupon for the given sale snapshot. A coupon left open on
// the device is cancelled and the open retried once; out-of-paper and
// offline are surfaced as transient so the operator can intervene and the
// caller re-invokes Open.
func (s *Session) Open(ctx context.Context, sale saledomain.Sale) error {
	if err := s.ensure(coupondomain.StepOpen, coupondomain.StateIdle); err != nil {
		return err
	}

	err := s.driver.OpenCoupon()
	if errors.Is(err, printerdomain.ErrCouponAlreadyOpen) {
		s.log.Warn("coupon left open on printer, cancelling and retrying")
		if cerr := s.driver.CancelCoupon(); cerr != nil {
			return s.fail(coupondomain.StepOpen, cerr)
		}
		err = s.driver.OpenCoupon()
	}
	if err != nil {
		if printerdomain.Transient(err) {
			s.faultMetric(ctx, coupondomain.StepOpen)
			return &coupondomain.TransientError{Step: coupondomain.StepOpen, Err: err}
		}
		return s.fail(coupondomain.StepOpen, err)
	}

	snapshot := sale
	s.sale = &snapshot
	s.coupon = coupondomain.Coupon{}
	s.setState(coupondomain.StateOpen)
	if s.metrics != nil {
		s.metrics.CouponOpened(ctx)
	}
	return nil
}

// IdentifyCustomer records the customer on the coupon, exactly once. Name
// and address are truncated to the lengths the printer declares.
func (s *Session) IdentifyCustomer(ctx context.Context, party saledomain.Party) error {
	if s.state == coupondomain.StateCustomerIdentified {
		return coupondomain.ErrAlreadyIdentified
	}
	if err := s.ensure(coupondomain.StepIdentify, coupondomain.StateOpen); err != nil {
		return err
	}

	caps := s.driver.Capabilities()
	name := truncate(party.Name, caps.Max(printerdomain.CapCustomerName, defaultNameLen))
	address := truncate(party.Address.Line(), caps.Max(printerdomain.CapCustomerAddress, defaultAddressLen))
	doc := saledomain.OnlyDigits(party.Doc)

	if err := s.driver.IdentifyCustomer(name, address, doc); err != nil {
		if printerdomain.Transient(err) {
			s.faultMetric(ctx, coupondomain.StepIdentify)
			return &coupondomain.TransientError{Step: coupondomain.StepIdentify, Err: err}
		}
		return err
	}

	s.coupon.Customer = &party
	s.setState(coupondomain.StateCustomerIdentified)
	return nil
}

// AddItem prints one sale line and retains the printer-assigned line id.
// Service and gift-certificate lines are skipped without touching the
// printer. A failed line leaves the coupon open; only that line is lost.
func (s *Session) AddItem(ctx context.Context, item saledomain.Item) (int, error) {
	if err := s.ensure(coupondomain.StepAddItem,
		coupondomain.StateOpen, coupondomain.StateCustomerIdentified); err != nil {
		return 0, err
	}
	if !item.Printable() {
		s.log.Debug("skipping non-printable line", zap.String("code", item.Code), zap.String("kind", string(item.Kind)))
		return 0, nil
	}

	caps := s.driver.Capabilities()
	code := truncate(item.Code, caps.Max(printerdomain.CapItemCode, defaultCodeLen))
	desc := truncate(item.Description, caps.Max(printerdomain.CapItemDescription, defaultDescLen))
	unit, unitDesc := printerUnit(item)

	lineID, err := s.driver.AddItem(code, desc, item.UnitPrice, item.PrinterTaxCode, item.Quantity, unit, unitDesc)
	if err != nil {
		if printerdomain.Transient(err) {
			s.faultMetric(ctx, coupondomain.StepAddItem)
			return 0, &coupondomain.TransientError{Step: coupondomain.StepAddItem, Err: err}
		}
		return 0, err
	}

	s.coupon.Items = append(s.coupon.Items, coupondomain.ItemHandle{LineID: lineID, Code: code})
	return lineID, nil
}

// CancelItem voids one already-printed line.
func (s *Session) CancelItem(ctx context.Context, lineID int) error {
	if err := s.ensure(coupondomain.StepCancelItem,
		coupondomain.StateOpen, coupondomain.StateCustomerIdentified); err != nil {
		return err
	}
	if err := s.driver.CancelItem(lineID); err != nil {
		return err
	}
	for i, h := range s.coupon.Items {
		if h.LineID == lineID {
			s.coupon.Items = append(s.coupon.Items[:i], s.coupon.Items[i+1:]...)
			break
		}
	}
	return nil
}

// Totalize locks the item list and applies at most one of discount or
// surcharge; when both are supplied the surcharge is silently zeroed, which
// is the fiscal driver's declared contract. Any driver fault here is fatal
// for the coupon.
func (s *Session) Totalize(ctx context.Context, discountPct, surchargePct decimal.Decimal) error {
	if err := s.ensure(coupondomain.StepTotalize,
		coupondomain.StateOpen, coupondomain.StateCustomerIdentified); err != nil {
		return err
	}
	if !s.coupon.Printable() {
		return coupondomain.ErrCannotTotalize
	}
	if discountPct.Sign() > 0 && surchargePct.Sign() > 0 {
		surchargePct = decimal.Zero
	}

	if err := s.driver.Totalize(discountPct, surchargePct); err != nil {
		return s.fail(coupondomain.StepTotalize, err)
	}
	s.setState(coupondomain.StateTotalized)
	return nil
}

// AddPayment translates the generic method kind to the printer constant and
// registers the payment. Unknown kinds ask the operator whether to fall back
// to money; declining cancels the whole coupon.
func (s *Session) AddPayment(ctx context.Context, payment saledomain.Payment) error {
	if err := s.ensure(coupondomain.StepAddPayment,
		coupondomain.StateTotalized, coupondomain.StatePaymentsOpen); err != nil {
		return err
	}

	method, customCode, err := s.resolveMethod(ctx, payment.Kind)
	if err != nil {
		if errors.Is(err, coupondomain.ErrPaymentDeclined) {
			if cerr := s.Cancel(ctx); cerr != nil {
				return cerr
			}
		}
		return err
	}

	if derr := s.driver.AddPayment(method, payment.Value, customCode); derr != nil {
		return s.fail(coupondomain.StepAddPayment, derr)
	}

	s.coupon.Payments = append(s.coupon.Payments, coupondomain.AppliedPayment{
		Kind:  payment.Kind,
		Value: payment.Value,
	})
	s.setState(coupondomain.StatePaymentsOpen)
	return nil
}

// Close finishes the coupon, stores the printer-assigned identifier on the
// sale and leaves the session in its terminal Closed state.
func (s *Session) Close(ctx context.Context) (int64, error) {
	if err := s.ensure(coupondomain.StepClose, coupondomain.StatePaymentsOpen); err != nil {
		return 0, err
	}
	// StatePaymentsOpen is only entered by a successful AddPayment, so at
	// least one payment is always registered here.

	couponID, err := s.driver.CloseCoupon()
	if err != nil {
		return 0, s.fail(coupondomain.StepClose, err)
	}

	s.coupon.CouponID = couponID
	s.setState(coupondomain.StateClosed)
	s.lastCouponID = couponID
	s.hasLast = true
	if s.sale != nil {
		s.lastSaleID = s.sale.ID
		if s.store != nil {
			if serr := s.store.SetCouponID(ctx, s.sale.ID, couponID); serr != nil {
				return couponID, serr
			}
		}
	}
	if s.metrics != nil {
		s.metrics.CouponClosed(ctx)
	}
	s.log.Info("coupon closed", zap.Int64("coupon_id", couponID))
	return couponID, nil
}

// Cancel voids the coupon in progress. Calling it with nothing open is a
// no-op; the printer is never touched from Idle.
func (s *Session) Cancel(ctx context.Context) error {
	if s.state == coupondomain.StateIdle {
		return nil
	}
	if s.state.Terminal() {
		return s.ensure(coupondomain.StepCancel, coupondomain.StateIdle)
	}

	if err := s.driver.CancelCoupon(); err != nil {
		if printerdomain.Transient(err) {
			s.faultMetric(ctx, coupondomain.StepCancel)
			return &coupondomain.TransientError{Step: coupondomain.StepCancel, Err: err}
		}
		return s.fail(coupondomain.StepCancel, err)
	}

	s.reset()
	if s.metrics != nil {
		s.metrics.CouponCancelled(ctx)
	}
	return nil
}

// CancelLast voids the most recently closed coupon and marks the sale
// cancelled. The stored coupon id is retained for audit. This is the only
// cancellation accepted after a coupon has closed.
func (s *Session) CancelLast(ctx context.Context) error {
	if !s.hasLast {
		return coupondomain.ErrNoLastCoupon
	}
	if s.state != coupondomain.StateIdle && s.state != coupondomain.StateClosed {
		return s.ensure(coupondomain.StepCancel, coupondomain.StateIdle, coupondomain.StateClosed)
	}

	if err := s.driver.CancelCoupon(); err != nil {
		if printerdomain.Transient(err) {
			s.faultMetric(ctx, coupondomain.StepCancel)
			return &coupondomain.TransientError{Step: coupondomain.StepCancel, Err: err}
		}
		return err
	}

	if s.store != nil {
		if err := s.store.MarkCancelled(ctx, s.lastSaleID); err != nil {
			return err
		}
	}
	s.log.Info("last coupon cancelled",
		zap.Int64("coupon_id", s.lastCouponID),
		zap.Int64("sale_id", int64(s.lastSaleID)),
	)
	s.hasLast = false
	s.reset()
	if s.metrics != nil {
		s.metrics.CouponCancelled(ctx)
	}
	return nil
}

// Recover clears a coupon a previous process left open on the device. The
// printer is a stateful external resource; it must never be left
// mid-transaction silently.
func (s *Session) Recover(ctx context.Context) error {
	if err := s.ensure(coupondomain.StepCancel, coupondomain.StateIdle); err != nil {
		return err
	}
	if err := s.driver.CancelCoupon(); err != nil {
		if printerdomain.Transient(err) {
			return &coupondomain.TransientError{Step: coupondomain.StepCancel, Err: err}
		}
		return err
	}
	return nil
}

func (s *Session) resolveMethod(ctx context.Context, kind saledomain.PaymentKind) (printerdomain.PaymentMethod, int, error) {
	switch kind {
	case saledomain.PaymentKindMoney:
		return printerdomain.PaymentMoney, 0, nil
	case saledomain.PaymentKindCheck:
		return printerdomain.PaymentCheck, 0, nil
	}

	if s.methods != nil {
		mapping, err := s.methods.Lookup(ctx, kind)
		if err != nil {
			return 0, 0, err
		}
		if mapping != nil {
			return mapping.Method, mapping.CustomCode, nil
		}
	}

	if s.notifier != nil && s.notifier.AskYesNo(
		"Unknown payment method",
		"The payment method \""+string(kind)+"\" has no printer mapping. Register it as money?",
	) {
		return printerdomain.PaymentMoney, 0, nil
	}
	return 0, 0, coupondomain.ErrPaymentDeclined
}

func (s *Session) ensure(step coupondomain.Step, allowed ...coupondomain.State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return &invalidTransitionError{step: step, state: s.state}
}

// fail puts the session in its terminal failed state after attempting to
// void whatever the printer holds. The sale record is never modified here.
func (s *Session) fail(step coupondomain.Step, err error) error {
	if s.state != coupondomain.StateIdle && !s.state.Terminal() {
		if cerr := s.driver.CancelCoupon(); cerr != nil {
			s.log.Warn("cancel after fatal fault failed", zap.Error(cerr))
		}
	}
	s.setState(coupondomain.StateFailed)
	if s.metrics != nil {
		s.metrics.CouponFailed(context.Background())
	}
	return &coupondomain.FatalError{Step: step, Err: err}
}

func (s *Session) reset() {
	s.coupon = coupondomain.Coupon{}
	s.sale = nil
	s.setState(coupondomain.StateIdle)
}

func (s *Session) setState(st coupondomain.State) {
	s.state = st
	s.coupon.State = st
}

func (s *Session) faultMetric(ctx context.Context, step coupondomain.Step) {
	if s.metrics != nil {
		s.metrics.PrinterFault(ctx, string(step))
	}
}

func printerUnit(item saledomain.Item) (printerdomain.Unit, string) {
	switch item.Unit {
	case "":
		return printerdomain.UnitEmpty, ""
	case "l", "lt":
		return printerdomain.UnitLiters, ""
	case "kg":
		return printerdomain.UnitKilos, ""
	case "m":
		return printerdomain.UnitMeters, ""
	default:
		desc := item.UnitDesc
		if desc == "" {
			desc = item.Unit
		}
		return printerdomain.UnitCustom, desc
	}
}

// truncate cuts on a rune boundary; a byte cut could hand the driver a
// dangling lead byte from an accented name.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

type invalidTransitionError struct {
	step  coupondomain.Step
	state coupondomain.State
}

func (e *invalidTransitionError) Error() string {
	return "operation " + string(e.step) + " not allowed in state " + string(e.state)
}

func (e *invalidTransitionError) Is(target error) bool {
	return target == coupondomain.ErrInvalidTransition
}
