package service

import (
	"fmt"

	nfedomain "github.com/pdvlabs/fiscal/internal/nfe/domain"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/shopspring/decimal"
)

const crtSimplesNacional = 1

// taxVariantFor selects the ICMS variant for a line from its tax situation
// code and computes the line's contribution to the document totals. The
// variant family must match the issuer's regime: CSOSN codes for Simples
// Nacional, CST codes otherwise.
func taxVariantFor(item saledomain.Item, issuer saledomain.Issuer) (nfedomain.TaxICMS, lineContribution, error) {
	simples := len(item.CST) == 3
	if simples != (issuer.CRT == crtSimplesNacional) {
		return nfedomain.TaxICMS{}, lineContribution{}, fmt.Errorf("%w: cst %q with crt %d",
			nfedomain.ErrTaxRegimeMismatch, item.CST, issuer.CRT)
	}

	orig := fmt.Sprintf("%d", item.Origin)
	hundred := decimal.NewFromInt(100)
	lineTotal := item.Total()

	base := lineTotal
	if item.BaseReductionPct.Sign() > 0 {
		base = lineTotal.Mul(hundred.Sub(item.BaseReductionPct)).Div(hundred).Round(2)
	}
	icmsValue := base.Mul(item.ICMSRate).Div(hundred).Round(2)
	stBase := lineTotal
	stValue := stBase.Mul(item.STRate).Div(hundred).Round(2)

	var tax nfedomain.TaxICMS
	var contrib lineContribution

	switch item.CST {
	case "00":
		tax.ICMS00 = &nfedomain.ICMS00{
			Orig: orig, CST: item.CST, ModBC: "3",
			VBC: nfedomain.Money(base), PICMS: nfedomain.Rate(item.ICMSRate), VICMS: nfedomain.Money(icmsValue),
		}
		contrib.icmsBase, contrib.icms = base, icmsValue
	case "10":
		tax.ICMS10 = &nfedomain.ICMS10{
			Orig: orig, CST: item.CST, ModBC: "3",
			VBC: nfedomain.Money(base), PICMS: nfedomain.Rate(item.ICMSRate), VICMS: nfedomain.Money(icmsValue),
			ModBCST: "4",
			VBCST:   nfedomain.Money(stBase), PICMSST: nfedomain.Rate(item.STRate), VICMSST: nfedomain.Money(stValue),
		}
		contrib.icmsBase, contrib.icms = base, icmsValue
		contrib.stBase, contrib.st = stBase, stValue
	case "20":
		tax.ICMS20 = &nfedomain.ICMS20{
			Orig: orig, CST: item.CST, ModBC: "3",
			PRedBC: nfedomain.Rate(item.BaseReductionPct),
			VBC:    nfedomain.Money(base), PICMS: nfedomain.Rate(item.ICMSRate), VICMS: nfedomain.Money(icmsValue),
		}
		contrib.icmsBase, contrib.icms = base, icmsValue
	case "30":
		tax.ICMS30 = &nfedomain.ICMS30{
			Orig: orig, CST: item.CST, ModBCST: "4",
			VBCST: nfedomain.Money(stBase), PICMSST: nfedomain.Rate(item.STRate), VICMSST: nfedomain.Money(stValue),
		}
		contrib.stBase, contrib.st = stBase, stValue
	case "40":
		tax.ICMS40 = &nfedomain.ICMS40{Orig: orig, CST: item.CST}
	case "41":
		tax.ICMS41 = &nfedomain.ICMS41{Orig: orig, CST: item.CST}
	case "50":
		tax.ICMS50 = &nfedomain.ICMS50{Orig: orig, CST: item.CST}
	case "51":
		v := &nfedomain.ICMS51{Orig: orig, CST: item.CST}
		if item.ICMSRate.Sign() > 0 {
			v.ModBC = "3"
			v.VBC = nfedomain.Money(base)
			v.PICMS = nfedomain.Rate(item.ICMSRate)
			v.VICMS = nfedomain.Money(icmsValue)
			contrib.icmsBase, contrib.icms = base, icmsValue
		}
		tax.ICMS51 = v
	case "60":
		tax.ICMS60 = &nfedomain.ICMS60{
			Orig: orig, CST: item.CST,
			VBCST: nfedomain.Money(decimal.Zero), VICMSST: nfedomain.Money(decimal.Zero),
		}
	case "70":
		tax.ICMS70 = &nfedomain.ICMS70{
			Orig: orig, CST: item.CST, ModBC: "3",
			PRedBC: nfedomain.Rate(item.BaseReductionPct),
			VBC:    nfedomain.Money(base), PICMS: nfedomain.Rate(item.ICMSRate), VICMS: nfedomain.Money(icmsValue),
			ModBCST: "4",
			VBCST:   nfedomain.Money(stBase), PICMSST: nfedomain.Rate(item.STRate), VICMSST: nfedomain.Money(stValue),
		}
		contrib.icmsBase, contrib.icms = base, icmsValue
		contrib.stBase, contrib.st = stBase, stValue
	case "90":
		v := &nfedomain.ICMS90{Orig: orig, CST: item.CST}
		if item.ICMSRate.Sign() > 0 {
			v.ModBC = "3"
			v.VBC = nfedomain.Money(base)
			v.PICMS = nfedomain.Rate(item.ICMSRate)
			v.VICMS = nfedomain.Money(icmsValue)
			contrib.icmsBase, contrib.icms = base, icmsValue
		}
		tax.ICMS90 = v
	case "101":
		tax.ICMSSN101 = &nfedomain.ICMSSN101{
			Orig: orig, CSOSN: item.CST,
			PCredSN: nfedomain.Rate(item.ICMSRate), VCredICMSSN: nfedomain.Money(icmsValue),
		}
	case "102", "103", "300", "400":
		tax.ICMSSN102 = &nfedomain.ICMSSN102{Orig: orig, CSOSN: item.CST}
	case "201":
		tax.ICMSSN201 = &nfedomain.ICMSSN201{
			Orig: orig, CSOSN: item.CST, ModBCST: "4",
			VBCST: nfedomain.Money(stBase), PICMSST: nfedomain.Rate(item.STRate), VICMSST: nfedomain.Money(stValue),
			PCredSN: nfedomain.Rate(item.ICMSRate), VCredICMSSN: nfedomain.Money(icmsValue),
		}
		contrib.stBase, contrib.st = stBase, stValue
	case "202", "203":
		tax.ICMSSN202 = &nfedomain.ICMSSN202{
			Orig: orig, CSOSN: item.CST, ModBCST: "4",
			VBCST: nfedomain.Money(stBase), PICMSST: nfedomain.Rate(item.STRate), VICMSST: nfedomain.Money(stValue),
		}
		contrib.stBase, contrib.st = stBase, stValue
	case "500":
		tax.ICMSSN500 = &nfedomain.ICMSSN500{
			Orig: orig, CSOSN: item.CST,
			VBCSTRet: nfedomain.Money(decimal.Zero), VICMSSTRet: nfedomain.Money(decimal.Zero),
		}
	case "900":
		v := &nfedomain.ICMSSN900{Orig: orig, CSOSN: item.CST}
		if item.ICMSRate.Sign() > 0 {
			v.ModBC = "3"
			v.VBC = nfedomain.Money(base)
			v.PICMS = nfedomain.Rate(item.ICMSRate)
			v.VICMS = nfedomain.Money(icmsValue)
		}
		tax.ICMSSN900 = v
	default:
		return nfedomain.TaxICMS{}, lineContribution{}, fmt.Errorf("%w: %q",
			nfedomain.ErrUnknownTaxSituation, item.CST)
	}

	if err := tax.Validate(); err != nil {
		return nfedomain.TaxICMS{}, lineContribution{}, err
	}
	return tax, contrib, nil
}
