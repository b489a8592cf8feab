package accesskey

import "errors"

var (
	ErrInvalidKeyLength  = errors.New("invalid_key_length")
	ErrInvalidCheckDigit = errors.New("invalid_check_digit")
	ErrUnknownStateCode  = errors.New("unknown_state_code")
	ErrInvalidComponent  = errors.New("invalid_key_component")
)
