// Package domain models the fiscal coupon lifecycle. The printer enforces a
// legally mandated sequence of operations; the state machine here refuses any
// call that would leave the device mid-transaction in an unknown state.
package domain

// State is the coupon lifecycle state.
type State string

const (
	StateIdle               State = "IDLE"
	StateOpen               State = "OPEN"
	StateCustomerIdentified State = "CUSTOMER_IDENTIFIED"
	StateTotalized          State = "TOTALIZED"
	StatePaymentsOpen       State = "PAYMENTS_OPEN"
	StateClosed             State = "CLOSED"
	StateFailed             State = "FAILED"
)

// Terminal reports whether no further coupon operation is accepted.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// Step names the printer operation an error originated from, so callers know
// what to retry after operator intervention.
type Step string

const (
	StepOpen       Step = "open"
	StepIdentify   Step = "identify_customer"
	StepAddItem    Step = "add_item"
	StepCancelItem Step = "cancel_item"
	StepTotalize   Step = "totalize"
	StepAddPayment Step = "add_payment"
	StepClose      Step = "close"
	StepCancel     Step = "cancel"
)
