package domain

// The ICMS family is a closed tagged sum: TaxICMS carries exactly one non-nil
// variant, and each variant renders exactly the attributes its CST declares,
// in declared order. Adding a CST means adding a variant type here, never
// mutating an existing one.

// TaxICMS is the ICMS group inside det/imposto.
type TaxICMS struct {
	ICMS00 *ICMS00 `xml:"ICMS00,omitempty"`
	ICMS10 *ICMS10 `xml:"ICMS10,omitempty"`
	ICMS20 *ICMS20 `xml:"ICMS20,omitempty"`
	ICMS30 *ICMS30 `xml:"ICMS30,omitempty"`
	ICMS40 *ICMS40 `xml:"ICMS40,omitempty"`
	ICMS41 *ICMS41 `xml:"ICMS41,omitempty"`
	ICMS50 *ICMS50 `xml:"ICMS50,omitempty"`
	ICMS51 *ICMS51 `xml:"ICMS51,omitempty"`
	ICMS60 *ICMS60 `xml:"ICMS60,omitempty"`
	ICMS70 *ICMS70 `xml:"ICMS70,omitempty"`
	ICMS90 *ICMS90 `xml:"ICMS90,omitempty"`

	ICMSSN101 *ICMSSN101 `xml:"ICMSSN101,omitempty"`
	ICMSSN102 *ICMSSN102 `xml:"ICMSSN102,omitempty"`
	ICMSSN201 *ICMSSN201 `xml:"ICMSSN201,omitempty"`
	ICMSSN202 *ICMSSN202 `xml:"ICMSSN202,omitempty"`
	ICMSSN500 *ICMSSN500 `xml:"ICMSSN500,omitempty"`
	ICMSSN900 *ICMSSN900 `xml:"ICMSSN900,omitempty"`
}

// Validate ensures the sum carries exactly one variant.
func (t TaxICMS) Validate() error {
	count := 0
	for _, set := range []bool{
		t.ICMS00 != nil, t.ICMS10 != nil, t.ICMS20 != nil, t.ICMS30 != nil,
		t.ICMS40 != nil, t.ICMS41 != nil, t.ICMS50 != nil, t.ICMS51 != nil,
		t.ICMS60 != nil, t.ICMS70 != nil, t.ICMS90 != nil,
		t.ICMSSN101 != nil, t.ICMSSN102 != nil, t.ICMSSN201 != nil,
		t.ICMSSN202 != nil, t.ICMSSN500 != nil, t.ICMSSN900 != nil,
	} {
		if set {
			count++
		}
	}
	if count != 1 {
		return ErrAmbiguousTaxVariant
	}
	return nil
}

// SimplesNacional reports whether the selected variant belongs to the
// Simples Nacional regime (CSOSN family).
func (t TaxICMS) SimplesNacional() bool {
	return t.ICMSSN101 != nil || t.ICMSSN102 != nil || t.ICMSSN201 != nil ||
		t.ICMSSN202 != nil || t.ICMSSN500 != nil || t.ICMSSN900 != nil
}

// ICMS00: fully taxed.
type ICMS00 struct {
	Orig  string `xml:"orig"`
	CST   string `xml:"CST"`
	ModBC string `xml:"modBC"`
	VBC   string `xml:"vBC"`
	PICMS string `xml:"pICMS"`
	VICMS string `xml:"vICMS"`
}

// ICMS10: taxed with tax substitution.
type ICMS10 struct {
	Orig     string `xml:"orig"`
	CST      string `xml:"CST"`
	ModBC    string `xml:"modBC"`
	VBC      string `xml:"vBC"`
	PICMS    string `xml:"pICMS"`
	VICMS    string `xml:"vICMS"`
	ModBCST  string `xml:"modBCST"`
	PMVAST   string `xml:"pMVAST,omitempty"`
	PRedBCST string `xml:"pRedBCST,omitempty"`
	VBCST    string `xml:"vBCST"`
	PICMSST  string `xml:"pICMSST"`
	VICMSST  string `xml:"vICMSST"`
}

// ICMS20: taxed with reduced base.
type ICMS20 struct {
	Orig   string `xml:"orig"`
	CST    string `xml:"CST"`
	ModBC  string `xml:"modBC"`
	PRedBC string `xml:"pRedBC"`
	VBC    string `xml:"vBC"`
	PICMS  string `xml:"pICMS"`
	VICMS  string `xml:"vICMS"`
}

// ICMS30: exempt with tax substitution.
type ICMS30 struct {
	Orig    string `xml:"orig"`
	CST     string `xml:"CST"`
	ModBCST string `xml:"modBCST"`
	PMVAST  string `xml:"pMVAST,omitempty"`
	VBCST   string `xml:"vBCST"`
	PICMSST string `xml:"pICMSST"`
	VICMSST string `xml:"vICMSST"`
}

// ICMS40: exempt operation.
type ICMS40 struct {
	Orig string `xml:"orig"`
	CST  string `xml:"CST"`
}

// ICMS41: non-taxed operation.
type ICMS41 struct {
	Orig string `xml:"orig"`
	CST  string `xml:"CST"`
}

// ICMS50: suspended operation.
type ICMS50 struct {
	Orig string `xml:"orig"`
	CST  string `xml:"CST"`
}

// ICMS51: deferred.
type ICMS51 struct {
	Orig   string `xml:"orig"`
	CST    string `xml:"CST"`
	ModBC  string `xml:"modBC,omitempty"`
	PRedBC string `xml:"pRedBC,omitempty"`
	VBC    string `xml:"vBC,omitempty"`
	PICMS  string `xml:"pICMS,omitempty"`
	VICMS  string `xml:"vICMS,omitempty"`
}

// ICMS60: tax previously collected by substitution.
type ICMS60 struct {
	Orig    string `xml:"orig"`
	CST     string `xml:"CST"`
	VBCST   string `xml:"vBCST"`
	VICMSST string `xml:"vICMSST"`
}

// ICMS70: reduced base with tax substitution.
type ICMS70 struct {
	Orig     string `xml:"orig"`
	CST      string `xml:"CST"`
	ModBC    string `xml:"modBC"`
	PRedBC   string `xml:"pRedBC"`
	VBC      string `xml:"vBC"`
	PICMS    string `xml:"pICMS"`
	VICMS    string `xml:"vICMS"`
	ModBCST  string `xml:"modBCST"`
	PMVAST   string `xml:"pMVAST,omitempty"`
	PRedBCST string `xml:"pRedBCST,omitempty"`
	VBCST    string `xml:"vBCST"`
	PICMSST  string `xml:"pICMSST"`
	VICMSST  string `xml:"vICMSST"`
}

// ICMS90: other taxed operations.
type ICMS90 struct {
	Orig    string `xml:"orig"`
	CST     string `xml:"CST"`
	ModBC   string `xml:"modBC,omitempty"`
	VBC     string `xml:"vBC,omitempty"`
	PICMS   string `xml:"pICMS,omitempty"`
	VICMS   string `xml:"vICMS,omitempty"`
	ModBCST string `xml:"modBCST,omitempty"`
	VBCST   string `xml:"vBCST,omitempty"`
	PICMSST string `xml:"pICMSST,omitempty"`
	VICMSST string `xml:"vICMSST,omitempty"`
}

// ICMSSN101: Simples Nacional with credit.
type ICMSSN101 struct {
	Orig        string `xml:"orig"`
	CSOSN       string `xml:"CSOSN"`
	PCredSN     string `xml:"pCredSN"`
	VCredICMSSN string `xml:"vCredICMSSN"`
}

// ICMSSN102: Simples Nacional without credit.
type ICMSSN102 struct {
	Orig  string `xml:"orig"`
	CSOSN string `xml:"CSOSN"`
}

// ICMSSN201: Simples Nacional with credit and tax substitution.
type ICMSSN201 struct {
	Orig        string `xml:"orig"`
	CSOSN       string `xml:"CSOSN"`
	ModBCST     string `xml:"modBCST"`
	VBCST       string `xml:"vBCST"`
	PICMSST     string `xml:"pICMSST"`
	VICMSST     string `xml:"vICMSST"`
	PCredSN     string `xml:"pCredSN"`
	VCredICMSSN string `xml:"vCredICMSSN"`
}

// ICMSSN202: Simples Nacional without credit, with tax substitution.
type ICMSSN202 struct {
	Orig    string `xml:"orig"`
	CSOSN   string `xml:"CSOSN"`
	ModBCST string `xml:"modBCST"`
	VBCST   string `xml:"vBCST"`
	PICMSST string `xml:"pICMSST"`
	VICMSST string `xml:"vICMSST"`
}

// ICMSSN500: substitution already collected.
type ICMSSN500 struct {
	Orig       string `xml:"orig"`
	CSOSN      string `xml:"CSOSN"`
	VBCSTRet   string `xml:"vBCSTRet"`
	VICMSSTRet string `xml:"vICMSSTRet"`
}

// ICMSSN900: other Simples Nacional operations.
type ICMSSN900 struct {
	Orig    string `xml:"orig"`
	CSOSN   string `xml:"CSOSN"`
	ModBC   string `xml:"modBC,omitempty"`
	VBC     string `xml:"vBC,omitempty"`
	PICMS   string `xml:"pICMS,omitempty"`
	VICMS   string `xml:"vICMS,omitempty"`
	ModBCST string `xml:"modBCST,omitempty"`
	VBCST   string `xml:"vBCST,omitempty"`
	PICMSST string `xml:"pICMSST,omitempty"`
	VICMSST string `xml:"vICMSST,omitempty"`
}
