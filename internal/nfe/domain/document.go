// Package domain models the NF-e document tree. Struct field order follows
// the published layout, which is what fixes the canonical element order when
// the tree is marshalled.
package domain

import (
	"bytes"
	"encoding/xml"
)

// Namespace is the portal fiscal namespace on the document root.
const Namespace = "http://www.portalfiscal.inf.br/nfe"

// Version is the layout version rendered on infNFe.
const Version = "1.10"

const header = `<?xml version="1.0" encoding="UTF-8"?>`

// NFe is the document root.
type NFe struct {
	XMLName xml.Name `xml:"NFe"`
	Xmlns   string   `xml:"xmlns,attr"`
	InfNFe  InfNFe   `xml:"infNFe"`
}

// NewNFe wraps an infNFe tree with the namespaced root.
func NewNFe(inf InfNFe) *NFe {
	return &NFe{Xmlns: Namespace, InfNFe: inf}
}

// Bytes renders the canonical UTF-8 document.
func (d *NFe) Bytes() ([]byte, error) {
	body, err := xml.Marshal(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.Write(body)
	return buf.Bytes(), nil
}

// InfNFe groups every child of the document; Id is "NFe" plus the 44-digit
// access key.
type InfNFe struct {
	Versao string `xml:"versao,attr"`
	ID     string `xml:"Id,attr"`

	Ide     Ide      `xml:"ide"`
	Emit    Emit     `xml:"emit"`
	Dest    *Dest    `xml:"dest,omitempty"`
	Det     []Det    `xml:"det"`
	Total   Total    `xml:"total"`
	Transp  Transp   `xml:"transp"`
	Cobr    *Cobr    `xml:"cobr,omitempty"`
	Pag     []Pag    `xml:"pag"`
	InfAdic *InfAdic `xml:"infAdic,omitempty"`
}

// Ide is the identification group.
type Ide struct {
	CUF     string `xml:"cUF"`
	CNF     string `xml:"cNF"`
	NatOp   string `xml:"natOp"`
	IndPag  string `xml:"indPag"`
	Mod     string `xml:"mod"`
	Serie   string `xml:"serie"`
	NNF     string `xml:"nNF"`
	DEmi    string `xml:"dEmi"`
	TpNF    string `xml:"tpNF"`
	CMunFG  string `xml:"cMunFG"`
	TpImp   string `xml:"tpImp"`
	TpEmis  string `xml:"tpEmis"`
	CDV     string `xml:"cDV"`
	TpAmb   string `xml:"tpAmb"`
	FinNFe  string `xml:"finNFe"`
	ProcEmi string `xml:"procEmi"`
	VerProc string `xml:"verProc"`
}

// Payment indicator values for ide/indPag.
const (
	IndPagCash        = "0"
	IndPagInstallment = "1"
	IndPagOther       = "2"
)

// IdeParams are the semantically required identification inputs; every other
// ide field takes its layout default.
type IdeParams struct {
	StateCode    string
	Code         string // cNF
	CityCode     string
	PaymentType  string // indPag
	Model        string
	Series       string
	Number       string
	EmissionDate string
	EmissionType string
	DV           string
}

// NewIde builds ide from the required parameters over per-instance defaults.
func NewIde(p IdeParams) Ide {
	ide := Ide{
		NatOp:   "Venda",
		TpNF:    "1",
		TpImp:   "2",
		TpAmb:   "2",
		FinNFe:  "1",
		ProcEmi: "0",
		VerProc: "fiscal 0.1",
	}
	ide.CUF = p.StateCode
	ide.CNF = p.Code
	ide.IndPag = p.PaymentType
	ide.Mod = p.Model
	ide.Serie = p.Series
	ide.NNF = p.Number
	ide.DEmi = p.EmissionDate
	ide.CMunFG = p.CityCode
	ide.TpEmis = p.EmissionType
	ide.CDV = p.DV
	return ide
}

// Emit is the issuer group.
type Emit struct {
	CNPJ      string   `xml:"CNPJ"`
	XNome     string   `xml:"xNome"`
	XFant     string   `xml:"xFant,omitempty"`
	EnderEmit Endereco `xml:"enderEmit"`
	IE        string   `xml:"IE"`
}

// Dest is the recipient group, present only when the sale identifies one.
type Dest struct {
	CNPJ      string    `xml:"CNPJ,omitempty"`
	CPF       string    `xml:"CPF,omitempty"`
	XNome     string    `xml:"xNome"`
	EnderDest *Endereco `xml:"enderDest,omitempty"`
}

// Endereco is the shared address sub-tree for issuer and recipient.
type Endereco struct {
	XLgr    string `xml:"xLgr"`
	Nro     string `xml:"nro"`
	XCpl    string `xml:"xCpl,omitempty"`
	XBairro string `xml:"xBairro"`
	CMun    string `xml:"cMun"`
	XMun    string `xml:"xMun"`
	UF      string `xml:"UF"`
	CEP     string `xml:"CEP,omitempty"`
	CPais   string `xml:"cPais"`
	XPais   string `xml:"xPais"`
	Fone    string `xml:"fone,omitempty"`
}

// NewEndereco fills the country defaults the layout fixes for domestic
// documents.
func NewEndereco(street, number, district, cityCode, city, uf, cep, phone string) Endereco {
	return Endereco{
		XLgr:    Trunc(street, MaxStreet),
		Nro:     Trunc(number, MaxNumber),
		XBairro: Trunc(district, MaxDistrict),
		CMun:    cityCode,
		XMun:    Trunc(city, MaxCity),
		UF:      uf,
		CEP:     cep,
		CPais:   "1058",
		XPais:   "BRASIL",
		Fone:    phone,
	}
}

// Det is one numbered item line.
type Det struct {
	NItem   string  `xml:"nItem,attr"`
	Prod    Prod    `xml:"prod"`
	Imposto Imposto `xml:"imposto"`
}

// Prod is the product sub-group of a line.
type Prod struct {
	CProd  string `xml:"cProd"`
	CEAN   string `xml:"cEAN,omitempty"`
	XProd  string `xml:"xProd"`
	NCM    string `xml:"NCM"`
	CFOP   string `xml:"CFOP"`
	UCom   string `xml:"uCom"`
	QCom   string `xml:"qCom"`
	VUnCom string `xml:"vUnCom"`
	VProd  string `xml:"vProd"`
}

// Imposto groups the line taxes; exactly one ICMS variant plus the optional
// federal groups.
type Imposto struct {
	ICMS   TaxICMS `xml:"ICMS"`
	IPI    *IPI    `xml:"IPI,omitempty"`
	PIS    *PIS    `xml:"PIS,omitempty"`
	COFINS *COFINS `xml:"COFINS,omitempty"`
}

// IPI carries the taxed IPI sub-group.
type IPI struct {
	IPITrib IPITrib `xml:"IPITrib"`
}

type IPITrib struct {
	CST  string `xml:"CST"`
	VBC  string `xml:"vBC"`
	PIPI string `xml:"pIPI"`
	VIPI string `xml:"vIPI"`
}

// PIS carries the rate-based PIS sub-group.
type PIS struct {
	PISAliq PISAliq `xml:"PISAliq"`
}

type PISAliq struct {
	CST  string `xml:"CST"`
	VBC  string `xml:"vBC"`
	PPIS string `xml:"pPIS"`
	VPIS string `xml:"vPIS"`
}

// COFINS carries the rate-based COFINS sub-group.
type COFINS struct {
	COFINSAliq COFINSAliq `xml:"COFINSAliq"`
}

type COFINSAliq struct {
	CST     string `xml:"CST"`
	VBC     string `xml:"vBC"`
	PCOFINS string `xml:"pCOFINS"`
	VCOFINS string `xml:"vCOFINS"`
}

// Total is the document totals group.
type Total struct {
	ICMSTot ICMSTot `xml:"ICMSTot"`
}

type ICMSTot struct {
	VBC     string `xml:"vBC"`
	VICMS   string `xml:"vICMS"`
	VBCST   string `xml:"vBCST"`
	VST     string `xml:"vST"`
	VProd   string `xml:"vProd"`
	VFrete  string `xml:"vFrete"`
	VSeg    string `xml:"vSeg"`
	VDesc   string `xml:"vDesc"`
	VII     string `xml:"vII"`
	VIPI    string `xml:"vIPI"`
	VPIS    string `xml:"vPIS"`
	VCOFINS string `xml:"vCOFINS"`
	VOutro  string `xml:"vOutro"`
	VNF     string `xml:"vNF"`
}

// Transp is the transport group; 9 means no freight charge.
type Transp struct {
	ModFrete string `xml:"modFrete"`
}

// Cobr is the optional billing group.
type Cobr struct {
	Fat *Fat  `xml:"fat,omitempty"`
	Dup []Dup `xml:"dup,omitempty"`
}

type Fat struct {
	NFat  string `xml:"nFat"`
	VOrig string `xml:"vOrig"`
	VDesc string `xml:"vDesc,omitempty"`
	VLiq  string `xml:"vLiq"`
}

type Dup struct {
	NDup  string `xml:"nDup"`
	DVenc string `xml:"dVenc"`
	VDup  string `xml:"vDup"`
}

// Pag is one payment entry.
type Pag struct {
	TPag string `xml:"tPag"`
	VPag string `xml:"vPag"`
}

// Payment method codes for pag/tPag.
const (
	TPagMoney       = "01"
	TPagCheck       = "02"
	TPagCreditCard  = "03"
	TPagDebitCard   = "04"
	TPagStoreCredit = "05"
	TPagOther       = "99"
)

// InfAdic carries free-text additional information.
type InfAdic struct {
	InfCpl string `xml:"infCpl,omitempty"`
}
