package domain

import "errors"

var (
	ErrMissingIssuer    = errors.New("missing_issuer")
	ErrMissingIssuerDoc = errors.New("missing_issuer_document")
	ErrMissingState     = errors.New("missing_issuer_state")
	ErrMissingItems     = errors.New("missing_items")
	ErrInvalidTaxID     = errors.New("invalid_tax_id")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidTotal     = errors.New("invalid_total")
	ErrSaleNotFound     = errors.New("sale_not_found")
	ErrInvalidPayment   = errors.New("invalid_payment")
)
