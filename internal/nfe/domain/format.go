package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Maximum field lengths from the published NF-e layout table.
const (
	MaxLegalName   = 60
	MaxTradeName   = 60
	MaxDescription = 120
	MaxProductCode = 60
	MaxStreet      = 60
	MaxNumber      = 60
	MaxDistrict    = 60
	MaxCity        = 60
	MaxNatOp       = 60
	MaxInfCpl      = 5000
)

// Money renders a monetary value with exactly two fractional digits.
func Money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// Qty renders a commercial quantity with exactly four fractional digits.
func Qty(d decimal.Decimal) string {
	return d.Round(4).StringFixed(4)
}

// Rate renders a percentage with two fractional digits.
func Rate(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// Date renders an emission date as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}

// Trunc trims surrounding space and cuts the value to the layout length.
// Layout lengths count characters, so the cut lands on a rune boundary and
// accented text never reaches the document with a split byte sequence.
func Trunc(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
