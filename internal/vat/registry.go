// Package vat validates European VAT identification numbers offline: it
// sanitizes raw input, matches the per-country format and runs the published
// checksum scheme for each jurisdiction. Remote verification against the EU
// VIES service lives in the vies package.
package vat

import (
	"sort"
	"strings"
)

// Registry holds an immutable set of per-country validation rules. It is
// populated once at construction and safe for concurrent use without
// synchronization afterwards.
type Registry struct {
	rules map[string]Rule
	codes []string
}

// NewRegistry builds a registry from an explicit rule set. Country codes are
// uppercased; the rule map is copied so later mutation of the argument
// cannot leak in.
func NewRegistry(rules map[string]Rule) *Registry {
	r := &Registry{
		rules: make(map[string]Rule, len(rules)),
		codes: make([]string, 0, len(rules)),
	}
	for cc, rule := range rules {
		cc = strings.ToUpper(cc)
		r.rules[cc] = rule
		r.codes = append(r.codes, cc)
	}
	sort.Strings(r.codes)
	return r
}

// NewDefaultRegistry builds a registry with the standard EU rule set.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultRules())
}

// Lookup returns the rule registered for a country code, if any.
func (r *Registry) Lookup(countryCode string) (Rule, bool) {
	rule, ok := r.rules[strings.ToUpper(countryCode)]
	return rule, ok
}

// Countries returns the registered country codes in lexicographic order.
func (r *Registry) Countries() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// IsValid reports whether the raw code is a valid VAT number for the given
// country. Unknown countries are invalid, never an error.
func (r *Registry) IsValid(countryCode, raw string) bool {
	return r.Inspect(countryCode, raw).Valid
}

// Inspection breaks a validation verdict into its parts so callers can tell
// a malformed number from one that is well formed but fails its checksum.
type Inspection struct {
	CountryCode  string
	Sanitized    string
	KnownCountry bool
	FormatOK     bool
	ChecksumOK   bool
	Valid        bool
}

// Inspect validates the raw code for the given country and reports each
// stage of the verdict. ChecksumOK is only meaningful once FormatOK holds;
// countries without a checksum scheme pass it by definition.
func (r *Registry) Inspect(countryCode, raw string) Inspection {
	cc := strings.ToUpper(countryCode)
	ins := Inspection{
		CountryCode: cc,
		Sanitized:   Sanitize(cc, raw),
	}

	rule, ok := r.rules[cc]
	if !ok {
		return ins
	}
	ins.KnownCountry = true

	if !rule.Pattern.MatchString(ins.Sanitized) {
		return ins
	}
	ins.FormatOK = true

	ins.ChecksumOK = rule.Checksum == nil || rule.Checksum(ins.Sanitized)
	ins.Valid = ins.FormatOK && ins.ChecksumOK
	return ins
}

// CountriesWhereValid returns every country for which the raw code is a
// valid VAT number, sanitizing per country so prefixed input still matches
// its own jurisdiction. The result is in lexicographic order; an empty slice
// means no country accepts the code.
func (r *Registry) CountriesWhereValid(raw string) []string {
	matches := make([]string, 0, 2)
	for _, cc := range r.codes {
		if r.IsValid(cc, raw) {
			matches = append(matches, cc)
		}
	}
	return matches
}
