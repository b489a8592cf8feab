package domain

// ValidCNPJ checks the two verifier digits of a CNPJ.
func ValidCNPJ(doc string) bool {
	d := OnlyDigits(doc)
	if len(d) != 14 || allSame(d) {
		return false
	}
	if cnpjDigit(d, 12) != int(d[12]-'0') {
		return false
	}
	return cnpjDigit(d, 13) == int(d[13]-'0')
}

// ValidCPF checks the two verifier digits of a CPF.
func ValidCPF(doc string) bool {
	d := OnlyDigits(doc)
	if len(d) != 11 || allSame(d) {
		return false
	}
	if cpfDigit(d, 9) != int(d[9]-'0') {
		return false
	}
	return cpfDigit(d, 10) == int(d[10]-'0')
}

func cnpjDigit(d string, pos int) int {
	// Same right-to-left 2..9 weight cycle the access key DV uses.
	sum := 0
	for i := 0; i < pos; i++ {
		sum += int(d[pos-1-i]-'0') * (2 + i%8)
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func cpfDigit(d string, pos int) int {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += int(d[i]-'0') * (pos + 1 - i)
	}
	r := sum * 10 % 11
	return r % 10
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
