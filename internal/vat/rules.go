package vat

import (
	"regexp"
	"strings"
)

// Rule describes how one jurisdiction validates VAT numbers: an anchored
// pattern over the sanitized code plus an optional checksum predicate. The
// checksum is only consulted after the pattern matches; a nil checksum means
// the jurisdiction publishes no digit-check scheme we verify (format only).
type Rule struct {
	Pattern  *regexp.Regexp
	Checksum func(code string) bool
}

// DefaultRules returns the rule set for the 28 jurisdictions covered by the
// EU VAT scheme (the EU members plus the United Kingdom). Each entry was
// ported from the officially published algorithm for that country.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"AT": {Pattern: regexp.MustCompile(`^U\d{8}$`), Checksum: checksumAT},
		"BE": {Pattern: regexp.MustCompile(`^[01]?\d{9}$`), Checksum: checksumBE},
		"BG": {Pattern: regexp.MustCompile(`^\d{9,10}$`), Checksum: checksumBG},
		"CY": {Pattern: regexp.MustCompile(`^\d{8}[A-Z]$`), Checksum: checksumCY},
		"CZ": {Pattern: regexp.MustCompile(`^\d{8,10}$`), Checksum: checksumCZ},
		"DE": {Pattern: regexp.MustCompile(`^\d{9}$`), Checksum: checksumDE},
		"DK": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumDK},
		"EE": {Pattern: regexp.MustCompile(`^\d{9}$`), Checksum: checksumEE},
		"EL": {Pattern: regexp.MustCompile(`^\d{9}$`), Checksum: checksumEL},
		"ES": {Pattern: regexp.MustCompile(`^[0-9A-Z]\d{7}[0-9A-Z]$`)},
		"FI": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumFI},
		"FR": {Pattern: regexp.MustCompile(`^\d{11}$`), Checksum: checksumFR},
		"GB": {Pattern: regexp.MustCompile(`^(\d{9}(\d{3})?|[A-Z]{2}\d{3})$`)},
		"HR": {Pattern: regexp.MustCompile(`^\d{11}$`), Checksum: checksumHR},
		"HU": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumHU},
		"IE": {Pattern: regexp.MustCompile(`^(\d[A-Z+*]\d{5}[A-W]|\d{7}[A-W][A-IW]?)$`), Checksum: checksumIE},
		"IT": {Pattern: regexp.MustCompile(`^\d{11}$`), Checksum: checksumIT},
		"LT": {Pattern: regexp.MustCompile(`^(\d{9}|\d{12})$`), Checksum: checksumLT},
		"LU": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumLU},
		"LV": {Pattern: regexp.MustCompile(`^\d{11}$`), Checksum: checksumLV},
		"MT": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumMT},
		"NL": {Pattern: regexp.MustCompile(`^\d{9}B\d{2}$`), Checksum: checksumNL},
		"PL": {Pattern: regexp.MustCompile(`^\d{10}$`), Checksum: checksumPL},
		"PT": {Pattern: regexp.MustCompile(`^\d{9}$`), Checksum: checksumPT},
		"RO": {Pattern: regexp.MustCompile(`^\d{2,10}$`), Checksum: checksumRO},
		"SE": {Pattern: regexp.MustCompile(`^\d{12}$`), Checksum: checksumSE},
		"SI": {Pattern: regexp.MustCompile(`^\d{8}$`), Checksum: checksumSI},
		"SK": {Pattern: regexp.MustCompile(`^\d{10}$`), Checksum: checksumSK},
	}
}

// digits converts a string of ASCII digits into a slice of ints. Returns
// false if any character is not a digit; checksum predicates fail closed on
// that rather than panic.
func digits(s string) ([]int, bool) {
	ds := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, false
		}
		ds[i] = int(s[i] - '0')
	}
	return ds, true
}

// number parses a string of ASCII digits into an int64.
func number(s string) (int64, bool) {
	if s == "" || len(s) > 18 {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int64(s[i]-'0')
	}
	return n, true
}

// weightedSum computes sum(weights[i] * ds[i]).
func weightedSum(ds, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += w * ds[i]
	}
	return sum
}

// doubleDigit doubles d and sums the decimal digits of the product, the
// transform used by Luhn-family schemes (AT, IT, SE).
func doubleDigit(d int) int {
	return d/5 + (d*2)%10
}

func checksumAT(code string) bool {
	// Code is U followed by 8 digits, the last of which is the check digit.
	ds, ok := digits(code[1:])
	if !ok || len(ds) != 8 {
		return false
	}
	sum := 4
	for i, d := range ds[:7] {
		if i%2 == 1 {
			sum += doubleDigit(d)
		} else {
			sum += d
		}
	}
	return (10-sum%10)%10 == ds[7]
}

func checksumBE(code string) bool {
	// Nine-digit legacy numbers gained a leading zero in 2007.
	if len(code) == 9 {
		code = "0" + code
	}
	if len(code) != 10 || code[0] != '0' || code[1] == '0' {
		return false
	}
	base, ok1 := number(code[:8])
	check, ok2 := number(code[8:])
	return ok1 && ok2 && 97-base%97 == check
}

func checksumBG(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	switch len(ds) {
	case 9:
		return checksumBGLegalEntity(ds)
	case 10:
		return checksumBGPhysicalPerson(ds) ||
			checksumBGForeigner(ds) ||
			checksumBGMiscellaneous(ds)
	}
	return false
}

func checksumBGLegalEntity(ds []int) bool {
	sum := 0
	for i, d := range ds[:8] {
		sum += (i + 1) * d
	}
	cd := sum % 11
	if cd == 10 {
		sum = 0
		for i, d := range ds[:8] {
			sum += (i + 3) * d
		}
		cd = sum % 11
	}
	return cd%10 == ds[8]
}

func checksumBGPhysicalPerson(ds []int) bool {
	month := ds[2]*10 + ds[3]
	day := ds[4]*10 + ds[5]
	// Months 21-32 and 41-52 encode births before 1900 and after 1999.
	if month < 1 || month > 40 || day < 1 || day > 30 {
		return false
	}
	sum := weightedSum(ds, []int{2, 4, 8, 5, 10, 9, 7, 3, 6})
	return sum%11%10 == ds[9]
}

func checksumBGForeigner(ds []int) bool {
	sum := weightedSum(ds, []int{21, 19, 17, 13, 11, 9, 7, 3, 1})
	return sum%10 == ds[9]
}

func checksumBGMiscellaneous(ds []int) bool {
	cd := 11 - weightedSum(ds, []int{4, 3, 2, 7, 6, 5, 4, 3, 2})%11
	switch cd {
	case 10:
		return false
	case 11:
		cd = 0
	}
	return cd == ds[9]
}

func checksumCY(code string) bool {
	if strings.HasPrefix(code, "12") {
		return false
	}
	ds, ok := digits(code[:8])
	if !ok {
		return false
	}
	// Digits in even positions are translated through a published key
	// before summing.
	key := [10]int{1, 0, 5, 7, 9, 13, 15, 17, 19, 21}
	sum := 0
	for i, d := range ds {
		if i%2 == 0 {
			sum += key[d]
		} else {
			sum += d
		}
	}
	return code[8] == byte('A'+sum%26)
}

func checksumCZ(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	switch len(ds) {
	case 8:
		return czLegalEntity(ds)
	case 9:
		return czIndividualDate(ds) || czIndividualSpecial(ds)
	case 10:
		return czIndividualLong(code, ds)
	}
	return false
}

// czRoundUp rounds sum up to the next multiple of 11, treating an exact
// multiple as one full step further.
func czRoundUp(sum int) int {
	if sum%11 == 0 {
		return sum + 11
	}
	return (sum/11 + 1) * 11
}

func czLegalEntity(ds []int) bool {
	sum := weightedSum(ds, []int{8, 7, 6, 5, 4, 3, 2})
	return ds[7] == (czRoundUp(sum)-sum)%10
}

func czIndividualDate(ds []int) bool {
	year := ds[0]*10 + ds[1]
	month := ds[2]*10 + ds[3]
	day := ds[4]*10 + ds[5]
	// Months 51-62 mark numbers issued to women.
	return year <= 53 &&
		((month >= 1 && month <= 12) || (month >= 51 && month <= 62)) &&
		day >= 1 && day <= 31
}

func czIndividualSpecial(ds []int) bool {
	sum := weightedSum(ds[1:], []int{8, 7, 6, 5, 4, 3, 2})
	table := [12]int{0, 8, 7, 6, 5, 4, 3, 2, 1, 0, 9, 8}
	return ds[8] == table[czRoundUp(sum)-sum]
}

func czIndividualLong(code string, ds []int) bool {
	full, ok := number(code)
	if !ok || full%11 != 0 {
		return false
	}
	pairs := 0
	for i := 0; i < 10; i += 2 {
		pairs += ds[i]*10 + ds[i+1]
	}
	return pairs%11 == 0
}

func checksumDE(code string) bool {
	// ISO 7064 MOD 11,10.
	ds, ok := digits(code)
	if !ok || ds[0] == 0 {
		return false
	}
	product := 10
	for _, d := range ds[:8] {
		sum := (d + product) % 10
		if sum == 0 {
			sum = 10
		}
		product = (2 * sum) % 11
	}
	cd := 11 - product
	if cd == 10 {
		cd = 0
	}
	return ds[8] == cd
}

func checksumDK(code string) bool {
	ds, ok := digits(code)
	if !ok || ds[0] == 0 {
		return false
	}
	return weightedSum(ds, []int{2, 7, 6, 5, 4, 3, 2, 1})%11 == 0
}

func checksumEE(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	sum := weightedSum(ds, []int{3, 7, 1, 3, 7, 1, 3, 7})
	return ds[8] == ((sum+9)/10)*10-sum
}

func checksumEL(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	sum := weightedSum(ds, []int{256, 128, 64, 32, 16, 8, 4, 2})
	return ds[8] == sum%11%10
}

func checksumFI(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	return weightedSum(ds, []int{7, 9, 10, 5, 8, 4, 2, 1})%11 == 0
}

func checksumFR(code string) bool {
	key, ok1 := number(code[:2])
	siren, ok2 := number(code[2:])
	return ok1 && ok2 && key == (siren*100+12)%97
}

func checksumHR(code string) bool {
	// ISO 7064 MOD 11,10 over the first ten digits.
	ds, ok := digits(code)
	if !ok {
		return false
	}
	product := 10
	for _, d := range ds[:10] {
		sum := (d + product) % 10
		if sum == 0 {
			sum = 10
		}
		product = (2 * sum) % 11
	}
	return (product+ds[10])%10 == 1
}

func checksumHU(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	sum := weightedSum(ds, []int{9, 7, 3, 1, 9, 7, 3})
	if sum%10 == 0 {
		return ds[7] == 0
	}
	return ds[7] == 10-sum%10
}

var (
	ieOldStyle = regexp.MustCompile(`^\d[A-Z+*]\d{5}[A-W]$`)
	ieNewStyle = regexp.MustCompile(`^\d{7}[A-W][A-IW]?$`)

	ieCheckChars = "WABCDEFGHIJKLMNOPQRSTUV"
)

func checksumIE(code string) bool {
	return checksumIEOld(code) || checksumIENew(code)
}

// checksumIEOld covers the pre-2013 format: a digit, a letter, five digits
// and the check character. The second character does not participate in the
// sum.
func checksumIEOld(code string) bool {
	if !ieOldStyle.MatchString(code) {
		return false
	}
	ds, ok := digits(code[2:7])
	if !ok {
		return false
	}
	sum := 2 * int(code[0]-'0')
	for i, d := range ds {
		sum += (7 - i) * d
	}
	return code[7] == ieCheckChars[sum%23]
}

// checksumIENew covers the current format: seven digits, the check character
// and an optional trailing letter that feeds into the sum with weight 9.
func checksumIENew(code string) bool {
	if !ieNewStyle.MatchString(code) {
		return false
	}
	ds, ok := digits(code[:7])
	if !ok {
		return false
	}
	extra := 0
	if len(code) == 9 {
		extra = strings.IndexByte("WABCDEFGHI", code[8])
		if extra < 0 {
			return false
		}
	}
	sum := 9 * extra
	for i, d := range ds {
		sum += (8 - i) * d
	}
	return code[7] == ieCheckChars[sum%23]
}

func checksumIT(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	sum := 0
	for i, d := range ds[:10] {
		if i%2 == 1 {
			sum += doubleDigit(d)
		} else {
			sum += d
		}
	}
	return ds[10] == (10-sum%10)%10
}

func checksumLT(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	switch len(ds) {
	case 9:
		if ds[7] != 1 {
			return false
		}
		r1 := weightedSum(ds, []int{1, 2, 3, 4, 5, 6, 7, 8}) % 11
		r2 := weightedSum(ds, []int{3, 4, 5, 6, 7, 8, 9, 1}) % 11
		return ltCheckDigit(ds[8], r1, r2)
	case 12:
		if ds[10] != 1 {
			return false
		}
		r1 := weightedSum(ds, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 1, 2}) % 11
		r2 := weightedSum(ds, []int{3, 4, 0, 6, 7, 8, 9, 1, 2, 3, 4}) % 11
		return ltCheckDigit(ds[11], r1, r2)
	}
	return false
}

func ltCheckDigit(cd, r1, r2 int) bool {
	if r1%10 != 0 {
		return cd == r1
	}
	if r2 == 10 {
		return cd == 0
	}
	return cd == r2
}

func checksumLU(code string) bool {
	base, ok1 := number(code[:6])
	check, ok2 := number(code[6:])
	return ok1 && ok2 && base%89 == check
}

func checksumLV(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	if ds[0] >= 4 {
		return lvLegalEntity(ds)
	}
	return strings.HasPrefix(code, "32") || lvNaturalPerson(ds)
}

func lvLegalEntity(ds []int) bool {
	r := 3 - weightedSum(ds, []int{9, 1, 4, 8, 3, 10, 2, 5, 7, 6})%11
	switch {
	case r == -1:
		return false
	case r < -1:
		return ds[10] == r+11
	default:
		return ds[10] == r
	}
}

func lvNaturalPerson(ds []int) bool {
	day := ds[0]*10 + ds[1]
	month := ds[2]*10 + ds[3]
	return day <= 30 && month <= 11 && ds[6] <= 2
}

func checksumMT(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	r := 37 - weightedSum(ds, []int{3, 4, 6, 7, 8, 9})%37
	check := ds[6]*10 + ds[7]
	if r == 0 {
		return check == 37
	}
	return check == r
}

func checksumNL(code string) bool {
	ds, ok := digits(code[:9])
	if !ok {
		return false
	}
	r := weightedSum(ds, []int{9, 8, 7, 6, 5, 4, 3, 2}) % 11
	return r != 10 && r == ds[8]
}

func checksumPL(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	r := weightedSum(ds, []int{6, 5, 7, 2, 3, 4, 5, 6, 7}) % 11
	return r != 10 && r == ds[9]
}

func checksumPT(code string) bool {
	ds, ok := digits(code)
	if !ok || ds[0] == 0 {
		return false
	}
	sum := 0
	for i, d := range ds[:8] {
		sum += (9 - i) * d
	}
	return ds[8] == (11-sum%11)%11%10
}

func checksumRO(code string) bool {
	ds, ok := digits(code)
	if !ok || len(ds) < 2 {
		return false
	}
	weights := []int{7, 5, 3, 2, 1, 7, 5, 3, 2}
	sum := weightedSum(ds, weights[10-len(ds):])
	cd := (10 * sum) % 11
	if cd == 10 {
		cd = 0
	}
	return cd == ds[len(ds)-1]
}

func checksumSE(code string) bool {
	// Luhn over the first nine digits; the trailing site suffix is not
	// checked.
	ds, ok := digits(code)
	if !ok {
		return false
	}
	sum := 0
	for i, d := range ds[:9] {
		if i%2 == 0 {
			sum += doubleDigit(d)
		} else {
			sum += d
		}
	}
	return ds[9] == (10-sum%10)%10
}

func checksumSI(code string) bool {
	ds, ok := digits(code)
	if !ok {
		return false
	}
	r := 11 - weightedSum(ds, []int{8, 7, 6, 5, 4, 3, 2})%11
	switch r {
	case 11:
		return false
	case 10:
		return ds[7] == 0
	}
	return ds[7] == r
}

func checksumSK(code string) bool {
	n, ok := number(code)
	return ok && n%11 == 0
}
