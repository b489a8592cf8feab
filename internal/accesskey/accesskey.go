// Package accesskey forms and validates the 44-digit NF-e access key.
//
// The key concatenates, in order: issuer state code (2), emission year-month
// YYMM (4), issuer CNPJ (14), document model (2), series (3), document number
// (9), emission-type flag (1), free numeric code cNF (8) and the check digit
// (1). Every component is zero-padded to its width.
package accesskey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	// PrefixLen is the number of digits the check digit is computed over.
	PrefixLen = 43
	// KeyLen is the full key length including the check digit.
	KeyLen = 44

	ufWidth       = 2
	periodWidth   = 4
	cnpjWidth     = 14
	modelWidth    = 2
	seriesWidth   = 3
	numberWidth   = 9
	emissionWidth = 1
	codeWidth     = 8
)

// stateCodes maps federative-unit abbreviations to IBGE numeric codes.
var stateCodes = map[string]int{
	"RO": 11, "AC": 12, "AM": 13, "RR": 14, "PA": 15, "AP": 16, "TO": 17,
	"MA": 21, "PI": 22, "CE": 23, "RN": 24, "PB": 25, "PE": 26, "AL": 27,
	"SE": 28, "BA": 29,
	"MG": 31, "ES": 32, "RJ": 33, "SP": 35,
	"PR": 41, "SC": 42, "RS": 43,
	"MS": 50, "MT": 51, "GO": 52, "DF": 53,
}

// StateCode resolves a UF abbreviation ("SP") to its IBGE code (35).
func StateCode(uf string) (int, error) {
	code, ok := stateCodes[strings.ToUpper(strings.TrimSpace(uf))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStateCode, uf)
	}
	return code, nil
}

// ComputeDV returns the modulo-11 check digit for a 43-digit prefix.
//
// Digits are weighted right to left with the cycle 2,3,4,5,6,7,8,9; the
// weighted sum is taken modulo 11, and a remainder of 0 or 1 yields DV 0,
// otherwise DV = 11 - remainder.
func ComputeDV(prefix string) (int, error) {
	if len(prefix) != PrefixLen {
		return 0, ErrInvalidKeyLength
	}
	sum := 0
	for i := 0; i < PrefixLen; i++ {
		c := prefix[PrefixLen-1-i]
		if c < '0' || c > '9' {
			return 0, ErrInvalidKeyLength
		}
		weight := 2 + i%8
		sum += int(c-'0') * weight
	}
	r := sum % 11
	if r < 2 {
		return 0, nil
	}
	return 11 - r, nil
}

// Key is a decomposed access key. Components are stored zero-padded.
type Key struct {
	UF           string
	Period       string // emission year-month, YYMM
	CNPJ         string
	Model        string
	Series       string
	Number       string
	EmissionType string
	Code         string // cNF free numeric code
	DV           int
}

// Build assembles a Key from raw components, zero-padding each to its
// layout width and computing the check digit.
func Build(uf string, issued time.Time, cnpj, model string, series, number, emissionType int64, code string) (Key, error) {
	state, err := StateCode(uf)
	if err != nil {
		return Key{}, err
	}
	cnpj = OnlyDigits(cnpj)
	if len(cnpj) != cnpjWidth {
		return Key{}, fmt.Errorf("%w: cnpj %q", ErrInvalidComponent, cnpj)
	}
	if model == "" || len(model) > modelWidth || OnlyDigits(model) != model {
		return Key{}, fmt.Errorf("%w: model %q", ErrInvalidComponent, model)
	}
	if series < 0 || series > 999 {
		return Key{}, fmt.Errorf("%w: series %d", ErrInvalidComponent, series)
	}
	if number <= 0 || number > 999_999_999 {
		return Key{}, fmt.Errorf("%w: number %d", ErrInvalidComponent, number)
	}
	if emissionType < 1 || emissionType > 9 {
		return Key{}, fmt.Errorf("%w: emission type %d", ErrInvalidComponent, emissionType)
	}
	if len(code) != codeWidth || OnlyDigits(code) != code {
		return Key{}, fmt.Errorf("%w: cNF %q", ErrInvalidComponent, code)
	}

	k := Key{
		UF:           fmt.Sprintf("%0*d", ufWidth, state),
		Period:       issued.Format("0601"),
		CNPJ:         cnpj,
		Model:        strings.Repeat("0", modelWidth-len(model)) + model,
		Series:       fmt.Sprintf("%0*d", seriesWidth, series),
		Number:       fmt.Sprintf("%0*d", numberWidth, number),
		EmissionType: fmt.Sprintf("%0*d", emissionWidth, emissionType),
		Code:         code,
	}
	dv, err := ComputeDV(k.Prefix())
	if err != nil {
		return Key{}, err
	}
	k.DV = dv
	return k, nil
}

// Parse decomposes a 44-digit key and re-validates its check digit.
func Parse(s string) (Key, error) {
	if len(s) != KeyLen || OnlyDigits(s) != s {
		return Key{}, ErrInvalidKeyLength
	}
	dv, err := ComputeDV(s[:PrefixLen])
	if err != nil {
		return Key{}, err
	}
	if dv != int(s[PrefixLen]-'0') {
		return Key{}, ErrInvalidCheckDigit
	}
	return Key{
		UF:           s[0:2],
		Period:       s[2:6],
		CNPJ:         s[6:20],
		Model:        s[20:22],
		Series:       s[22:25],
		Number:       s[25:34],
		EmissionType: s[34:35],
		Code:         s[35:43],
		DV:           dv,
	}, nil
}

// Prefix returns the 43 digits the check digit is computed over.
func (k Key) Prefix() string {
	return k.UF + k.Period + k.CNPJ + k.Model + k.Series + k.Number + k.EmissionType + k.Code
}

// String returns the full 44-digit key.
func (k Key) String() string {
	return fmt.Sprintf("%s%d", k.Prefix(), k.DV)
}

// NewCode draws a random 8-digit cNF.
func NewCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}
	return fmt.Sprintf("%08d", n.Int64())
}

// OnlyDigits strips every non-digit rune.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
