// Package domain defines the read-only sale snapshot consumed by the fiscal
// document assembler and the coupon state machine. The snapshot is a plain
// value: the core never mutates it and never reaches back into the selling
// application's own models.
package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ItemKind classifies a sale line for fiscal purposes. Only product lines
// are printed on the fiscal coupon.
type ItemKind string

const (
	ItemKindProduct         ItemKind = "product"
	ItemKindService         ItemKind = "service"
	ItemKindGiftCertificate ItemKind = "gift_certificate"
)

// PaymentKind is the selling application's generic payment method. The
// coupon layer translates kinds to printer constants through the
// per-installation method map.
type PaymentKind string

const (
	PaymentKindMoney       PaymentKind = "money"
	PaymentKindCheck       PaymentKind = "check"
	PaymentKindCard        PaymentKind = "card"
	PaymentKindBill        PaymentKind = "bill"
	PaymentKindStoreCredit PaymentKind = "store_credit"
)

// Address is the structured address rendered into the NF-e issuer and
// recipient sub-trees.
type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	CityCode   string // IBGE municipality code
	City       string
	State      string // UF abbreviation
	ZipCode    string
	Phone      string
}

// Line flattens the address into the single line the fiscal printer accepts.
func (a Address) Line() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.Number, a.District, a.City} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Issuer identifies the emitting company.
type Issuer struct {
	CNPJ              string
	LegalName         string
	TradeName         string
	StateRegistration string
	CRT               int // tax regime code; 1 = Simples Nacional
	Address           Address
}

// Party is an identified customer, individual (CPF) or company (CNPJ).
type Party struct {
	Doc     string
	Name    string
	Address Address
}

// IsCompany reports whether the document is a CNPJ.
func (p Party) IsCompany() bool {
	return len(OnlyDigits(p.Doc)) == 14
}

// Item is a single sale line with its fiscal metadata.
type Item struct {
	Code        string
	EAN         string
	Description string
	NCM         string
	CFOP        string
	Unit        string // commercial unit code, empty for unit-less lines
	UnitDesc    string // free-text descriptor for custom units
	Kind        ItemKind

	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal

	// ICMS situation for the XML document.
	Origin           int
	CST              string // CST 00..90 or CSOSN 101..900
	ICMSRate         decimal.Decimal
	BaseReductionPct decimal.Decimal // pRedBC for the reduced-base CSTs
	STRate           decimal.Decimal // substitution rate for the ST CSTs
	IPIRate          decimal.Decimal
	PISRate          decimal.Decimal
	COFINSRate       decimal.Decimal

	// Tax constant from the printer's own tax table, used on the coupon.
	PrinterTaxCode int
}

// Printable reports whether the line goes onto the fiscal coupon.
func (i Item) Printable() bool {
	return i.Kind == ItemKindProduct
}

// Total returns quantity times unit price rounded to cents.
func (i Item) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(2)
}

// Payment is one payment entry on the sale.
type Payment struct {
	Kind  PaymentKind
	Value decimal.Decimal
}

// TillEntry is a cash movement recorded on the coupon alongside payments.
type TillEntry struct {
	Description string
	Value       decimal.Decimal
}

// Sale is the immutable input view of a finished sale.
type Sale struct {
	ID     snowflake.ID
	Number int64 // fiscal document number (nNF)

	Issuer   Issuer
	Customer *Party

	Items        []Item
	DiscountPct  decimal.Decimal
	SurchargePct decimal.Decimal
	Total        decimal.Decimal // declared total, checked by the assembler

	Payments    []Payment
	TillEntries []TillEntry
}

// Validate checks the fields every fiscal operation requires.
func (s Sale) Validate() error {
	if s.Issuer.LegalName == "" {
		return ErrMissingIssuer
	}
	if OnlyDigits(s.Issuer.CNPJ) == "" {
		return ErrMissingIssuerDoc
	}
	if !ValidCNPJ(s.Issuer.CNPJ) {
		return ErrInvalidTaxID
	}
	if s.Issuer.Address.State == "" {
		return ErrMissingState
	}
	if len(s.Items) == 0 {
		return ErrMissingItems
	}
	for _, item := range s.Items {
		if item.Quantity.Sign() <= 0 {
			return ErrInvalidQuantity
		}
		if item.UnitPrice.Sign() < 0 {
			return ErrInvalidUnitPrice
		}
	}
	for _, p := range s.Payments {
		if p.Value.Sign() <= 0 {
			return ErrInvalidPayment
		}
	}
	if s.Customer != nil && s.Customer.Doc != "" {
		if !ValidCPF(s.Customer.Doc) && !ValidCNPJ(s.Customer.Doc) {
			return ErrInvalidTaxID
		}
	}
	return nil
}

// ItemsTotal sums the rounded line totals.
func (s Sale) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Total())
	}
	return total
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
