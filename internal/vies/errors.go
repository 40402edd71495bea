package vies

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCountry is returned before any network I/O when the country
	// code is not eligible for verification.
	ErrUnknownCountry = errors.New("country code is not eligible for verification")

	// ErrMalformedResponse is returned when the service answered but the
	// body fits neither the result nor the fault shape, or carries an
	// unparseable request date.
	ErrMalformedResponse = errors.New("malformed checkVat response")
)

// Fault is a protocol-level error envelope returned by the verification
// service. It means the exchange completed but the service refused to
// answer; the code and message are carried verbatim. Distinct from a
// successful response whose valid flag is false.
type Fault struct {
	Code    string
	Message string
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("checkVat fault: %s", f.Code)
	}
	return fmt.Sprintf("checkVat fault %s: %s", f.Code, f.Message)
}

// IsFault extracts a Fault from an error chain.
func IsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
