package domain

import "errors"

// Driver-level faults. Out-of-paper and offline are transient: the operator
// can reload paper or power-cycle and the same step can be retried. Anything
// else is fatal for the coupon in progress.
var (
	ErrCouponAlreadyOpen = errors.New("coupon_already_open")
	ErrOutOfPaper        = errors.New("printer_out_of_paper")
	ErrPrinterOffline    = errors.New("printer_offline")
)

// Transient reports whether the fault allows retrying the failed step after
// operator intervention.
func Transient(err error) bool {
	return errors.Is(err, ErrOutOfPaper) || errors.Is(err, ErrPrinterOffline)
}
