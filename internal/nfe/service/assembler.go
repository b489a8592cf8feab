// Package service assembles NF-e documents from sale snapshots.
package service

import (
	"context"
	"fmt"

	"github.com/pdvlabs/fiscal/internal/accesskey"
	"github.com/pdvlabs/fiscal/internal/clock"
	"github.com/pdvlabs/fiscal/internal/config"
	nfedomain "github.com/pdvlabs/fiscal/internal/nfe/domain"
	obsmetrics "github.com/pdvlabs/fiscal/internal/observability/metrics"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CodeFunc draws the cNF free numeric code. Injectable so tests can pin it.
type CodeFunc func() string

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Store   saledomain.Store    `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Code    CodeFunc            `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.Config
	store   saledomain.Store
	metrics *obsmetrics.Metrics
	code    CodeFunc
}

func NewService(p ServiceParam) nfedomain.Service {
	code := p.Code
	if code == nil {
		code = accesskey.NewCode
	}
	return &Service{
		log:     p.Log.Named("nfe.assembler"),
		clock:   p.Clock,
		cfg:     p.Config,
		store:   p.Store,
		metrics: p.Metrics,
		code:    code,
	}
}

// Assemble validates the snapshot, forms the access key and renders the
// canonical document. The snapshot is never mutated; the only side effect is
// persisting the key and XML through the sale store when one is wired.
func (s *Service) Assemble(ctx context.Context, sale saledomain.Sale) (nfedomain.Result, error) {
	if err := sale.Validate(); err != nil {
		return nfedomain.Result{}, mapValidation(err)
	}

	issued := s.clock.Now()
	key, err := accesskey.Build(
		sale.Issuer.Address.State,
		issued,
		sale.Issuer.CNPJ,
		s.cfg.EmissionModel,
		s.cfg.EmissionSeries,
		sale.Number,
		s.cfg.EmissionType,
		s.code(),
	)
	if err != nil {
		return nfedomain.Result{}, err
	}

	ide := nfedomain.NewIde(nfedomain.IdeParams{
		StateCode:    key.UF,
		Code:         key.Code,
		CityCode:     sale.Issuer.Address.CityCode,
		PaymentType:  paymentIndicator(sale),
		Model:        key.Model,
		Series:       key.Series,
		Number:       key.Number,
		EmissionDate: nfedomain.Date(issued),
		EmissionType: key.EmissionType,
		DV:           fmt.Sprintf("%d", key.DV),
	})

	inf := nfedomain.InfNFe{
		Versao: nfedomain.Version,
		ID:     "NFe" + key.String(),
		Ide:    ide,
		Emit:   buildEmit(sale.Issuer),
		Dest:   buildDest(sale.Customer),
		Transp: nfedomain.Transp{ModFrete: "9"},
	}

	var tot totals
	for i, item := range sale.Items {
		det, contrib, err := s.buildDet(i+1, item, sale.Issuer)
		if err != nil {
			return nfedomain.Result{}, err
		}
		inf.Det = append(inf.Det, det)
		tot.add(contrib)
	}

	discount := tot.products.Mul(sale.DiscountPct).Div(decimal.NewFromInt(100)).Round(2)
	totalNF := tot.products.Sub(discount).Add(tot.st).Add(tot.ipi)
	if !sale.Total.IsZero() && totalNF.Sub(sale.Total).Abs().GreaterThan(decimal.New(1, -2)) {
		return nfedomain.Result{}, fmt.Errorf("%w: computed %s declared %s",
			nfedomain.ErrInconsistentTotals, totalNF.StringFixed(2), sale.Total.StringFixed(2))
	}

	inf.Total = nfedomain.Total{ICMSTot: nfedomain.ICMSTot{
		VBC:     nfedomain.Money(tot.icmsBase),
		VICMS:   nfedomain.Money(tot.icms),
		VBCST:   nfedomain.Money(tot.stBase),
		VST:     nfedomain.Money(tot.st),
		VProd:   nfedomain.Money(tot.products),
		VFrete:  nfedomain.Money(decimal.Zero),
		VSeg:    nfedomain.Money(decimal.Zero),
		VDesc:   nfedomain.Money(discount),
		VII:     nfedomain.Money(decimal.Zero),
		VIPI:    nfedomain.Money(tot.ipi),
		VPIS:    nfedomain.Money(tot.pis),
		VCOFINS: nfedomain.Money(tot.cofins),
		VOutro:  nfedomain.Money(decimal.Zero),
		VNF:     nfedomain.Money(totalNF),
	}}

	for _, p := range sale.Payments {
		inf.Pag = append(inf.Pag, nfedomain.Pag{
			TPag: paymentCode(p.Kind),
			VPag: nfedomain.Money(p.Value),
		})
	}

	doc := nfedomain.NewNFe(inf)
	xmlBytes, err := doc.Bytes()
	if err != nil {
		return nfedomain.Result{}, err
	}

	if s.store != nil {
		if err := s.store.SaveDocument(ctx, sale.ID, key.String(), xmlBytes); err != nil {
			return nfedomain.Result{}, err
		}
	}
	if s.metrics != nil {
		s.metrics.DocumentAssembled(ctx, s.cfg.EmissionModel)
	}
	s.log.Info("document assembled",
		zap.String("access_key", key.String()),
		zap.Int("items", len(sale.Items)),
	)

	return nfedomain.Result{XML: xmlBytes, Key: key}, nil
}

func mapValidation(err error) error {
	switch err {
	case saledomain.ErrMissingIssuer, saledomain.ErrMissingIssuerDoc,
		saledomain.ErrMissingState, saledomain.ErrMissingItems:
		return fmt.Errorf("%w: %v", nfedomain.ErrMissingRequiredField, err)
	default:
		return err
	}
}

func paymentIndicator(sale saledomain.Sale) string {
	for _, p := range sale.Payments {
		if p.Kind == saledomain.PaymentKindBill {
			return nfedomain.IndPagInstallment
		}
	}
	return nfedomain.IndPagCash
}

func paymentCode(kind saledomain.PaymentKind) string {
	switch kind {
	case saledomain.PaymentKindMoney:
		return nfedomain.TPagMoney
	case saledomain.PaymentKindCheck:
		return nfedomain.TPagCheck
	case saledomain.PaymentKindCard:
		return nfedomain.TPagCreditCard
	case saledomain.PaymentKindStoreCredit:
		return nfedomain.TPagStoreCredit
	default:
		return nfedomain.TPagOther
	}
}

func buildEmit(issuer saledomain.Issuer) nfedomain.Emit {
	addr := issuer.Address
	return nfedomain.Emit{
		CNPJ:  saledomain.OnlyDigits(issuer.CNPJ),
		XNome: nfedomain.Trunc(issuer.LegalName, nfedomain.MaxLegalName),
		XFant: nfedomain.Trunc(issuer.TradeName, nfedomain.MaxTradeName),
		EnderEmit: nfedomain.NewEndereco(
			addr.Street, addr.Number, addr.District,
			addr.CityCode, addr.City, addr.State,
			saledomain.OnlyDigits(addr.ZipCode), saledomain.OnlyDigits(addr.Phone),
		),
		IE: saledomain.OnlyDigits(issuer.StateRegistration),
	}
}

func buildDest(customer *saledomain.Party) *nfedomain.Dest {
	if customer == nil {
		return nil
	}
	dest := &nfedomain.Dest{
		XNome: nfedomain.Trunc(customer.Name, nfedomain.MaxLegalName),
	}
	doc := saledomain.OnlyDigits(customer.Doc)
	if customer.IsCompany() {
		dest.CNPJ = doc
	} else {
		dest.CPF = doc
	}
	if customer.Address.Street != "" {
		ender := nfedomain.NewEndereco(
			customer.Address.Street, customer.Address.Number, customer.Address.District,
			customer.Address.CityCode, customer.Address.City, customer.Address.State,
			saledomain.OnlyDigits(customer.Address.ZipCode), saledomain.OnlyDigits(customer.Address.Phone),
		)
		dest.EnderDest = &ender
	}
	return dest
}

func (s *Service) buildDet(index int, item saledomain.Item, issuer saledomain.Issuer) (nfedomain.Det, lineContribution, error) {
	icms, contrib, err := taxVariantFor(item, issuer)
	if err != nil {
		return nfedomain.Det{}, lineContribution{}, err
	}

	lineTotal := item.Total()
	contrib.products = lineTotal

	imposto := nfedomain.Imposto{ICMS: icms}
	if item.IPIRate.Sign() > 0 {
		v := lineTotal.Mul(item.IPIRate).Div(decimal.NewFromInt(100)).Round(2)
		contrib.ipi = v
		imposto.IPI = &nfedomain.IPI{IPITrib: nfedomain.IPITrib{
			CST:  "50",
			VBC:  nfedomain.Money(lineTotal),
			PIPI: nfedomain.Rate(item.IPIRate),
			VIPI: nfedomain.Money(v),
		}}
	}
	if item.PISRate.Sign() > 0 {
		v := lineTotal.Mul(item.PISRate).Div(decimal.NewFromInt(100)).Round(2)
		contrib.pis = v
		imposto.PIS = &nfedomain.PIS{PISAliq: nfedomain.PISAliq{
			CST:  "01",
			VBC:  nfedomain.Money(lineTotal),
			PPIS: nfedomain.Rate(item.PISRate),
			VPIS: nfedomain.Money(v),
		}}
	}
	if item.COFINSRate.Sign() > 0 {
		v := lineTotal.Mul(item.COFINSRate).Div(decimal.NewFromInt(100)).Round(2)
		contrib.cofins = v
		imposto.COFINS = &nfedomain.COFINS{COFINSAliq: nfedomain.COFINSAliq{
			CST:     "01",
			VBC:     nfedomain.Money(lineTotal),
			PCOFINS: nfedomain.Rate(item.COFINSRate),
			VCOFINS: nfedomain.Money(v),
		}}
	}

	det := nfedomain.Det{
		NItem: fmt.Sprintf("%d", index),
		Prod: nfedomain.Prod{
			CProd:  nfedomain.Trunc(item.Code, nfedomain.MaxProductCode),
			CEAN:   item.EAN,
			XProd:  nfedomain.Trunc(item.Description, nfedomain.MaxDescription),
			NCM:    item.NCM,
			CFOP:   item.CFOP,
			UCom:   item.Unit,
			QCom:   nfedomain.Qty(item.Quantity),
			VUnCom: nfedomain.Money(item.UnitPrice),
			VProd:  nfedomain.Money(lineTotal),
		},
		Imposto: imposto,
	}
	return det, contrib, nil
}

type lineContribution struct {
	products decimal.Decimal
	icmsBase decimal.Decimal
	icms     decimal.Decimal
	stBase   decimal.Decimal
	st       decimal.Decimal
	ipi      decimal.Decimal
	pis      decimal.Decimal
	cofins   decimal.Decimal
}

type totals struct {
	products decimal.Decimal
	icmsBase decimal.Decimal
	icms     decimal.Decimal
	stBase   decimal.Decimal
	st       decimal.Decimal
	ipi      decimal.Decimal
	pis      decimal.Decimal
	cofins   decimal.Decimal
}

func (t *totals) add(c lineContribution) {
	t.products = t.products.Add(c.products)
	t.icmsBase = t.icmsBase.Add(c.icmsBase)
	t.icms = t.icms.Add(c.icms)
	t.stBase = t.stBase.Add(c.stBase)
	t.st = t.st.Add(c.st)
	t.ipi = t.ipi.Add(c.ipi)
	t.pis = t.pis.Add(c.pis)
	t.cofins = t.cofins.Add(c.cofins)
}
