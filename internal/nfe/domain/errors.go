package domain

import "errors"

var (
	ErrMissingRequiredField = errors.New("missing_required_field")
	ErrInconsistentTotals   = errors.New("inconsistent_totals")
	ErrAmbiguousTaxVariant  = errors.New("ambiguous_tax_variant")
	ErrUnknownTaxSituation  = errors.New("unknown_tax_situation")
	ErrTaxRegimeMismatch    = errors.New("tax_regime_mismatch")
)
