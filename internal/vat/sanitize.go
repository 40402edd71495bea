package vat

import "strings"

// Sanitize normalizes a raw VAT code into the canonical form that patterns
// and checksums operate on: non-alphanumeric characters are dropped, letters
// are uppercased, and any leading country-code prefix is stripped. The
// function is idempotent and never fails; unknown country codes simply get
// no prefix stripping.
//
// Greece is the one jurisdiction whose ISO code (GR) differs from its VAT
// prefix (EL), so both prefixes are accepted for it.
func Sanitize(countryCode, raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}

	code := b.String()
	prefixes := countryPrefixes(strings.ToUpper(strings.TrimSpace(countryCode)))
	for stripped := true; stripped; {
		stripped = false
		for _, p := range prefixes {
			if strings.HasPrefix(code, p) {
				code = code[len(p):]
				stripped = true
			}
		}
	}
	return code
}

func countryPrefixes(countryCode string) []string {
	switch {
	case countryCode == "EL" || countryCode == "GR":
		return []string{"EL", "GR"}
	case len(countryCode) == 2:
		return []string{countryCode}
	default:
		return nil
	}
}
