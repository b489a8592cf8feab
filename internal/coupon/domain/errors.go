package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid_coupon_transition")
	ErrAlreadyIdentified = errors.New("customer_already_identified")
	ErrCannotTotalize    = errors.New("cannot_totalize")
	ErrPaymentDeclined   = errors.New("payment_method_declined")
	ErrNoLastCoupon      = errors.New("no_coupon_to_cancel")
)

// TransientError wraps a retryable printer fault. The state machine did not
// advance; the caller re-invokes the same step after the operator clears the
// condition.
type TransientError struct {
	Step Step
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient printer fault at %s: %v", e.Step, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError wraps a printer fault that kills the coupon. The state machine
// is terminal; the caller must start a new coupon for a new attempt.
type FatalError struct {
	Step Step
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal printer fault at %s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
