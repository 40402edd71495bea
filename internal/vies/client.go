// Package vies verifies VAT numbers against the European Commission's VIES
// service over its SOAP checkVat operation. One call means one exchange:
// there is no retry, caching or queueing here, and cancellation is the
// caller's via context.
package vies

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/vatcheck/internal/vat"
)

// DefaultEndpoint is the production VIES checkVat service.
const DefaultEndpoint = "http://ec.europa.eu/taxation_customs/vies/services/checkVatService"

// CheckResult is a completed verification. Valid reports the registration
// status; Name and Address are populated together when the member state
// discloses them and empty otherwise. RequestDate is the calendar date the
// service stamped on the answer.
type CheckResult struct {
	CountryCode string
	VATNumber   string
	RequestDate time.Time
	Valid       bool
	Name        string
	Address     string
}

// Config carries the client dependencies. Zero values fall back to the
// production endpoint, http.DefaultClient and slog.Default; Registry is
// required so ineligible country codes are rejected before any network I/O.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Registry   *vat.Registry
}

// Client performs checkVat exchanges. Safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	registry   *vat.Registry
}

func New(cfg Config) *Client {
	c := &Client{
		endpoint:   cfg.Endpoint,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		registry:   cfg.Registry,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.registry == nil {
		c.registry = vat.NewDefaultRegistry()
	}
	return c
}

// Check verifies one VAT number with the remote service. The raw number is
// sanitized before it goes on the wire. Outcomes:
//
//   - a CheckResult, whether the number is registered or not;
//   - a *Fault when the service answered with a protocol fault;
//   - ErrUnknownCountry, ErrMalformedResponse, or a wrapped transport error.
//
// A CheckResult with Valid=false is a definitive answer, not an error.
func (c *Client) Check(ctx context.Context, countryCode, vatNumber string) (*CheckResult, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if _, ok := c.registry.Lookup(cc); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCountry, countryCode)
	}

	sanitized := vat.Sanitize(cc, vatNumber)
	payload, err := encodeRequest(cc, sanitized)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build checkVat request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml;charset=UTF-8")
	req.Header.Set("SOAPAction", "")

	c.logger.Debug("sending checkVat request",
		slog.String("country_code", cc),
		slog.String("endpoint", c.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkVat exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("checkVat read response: %w", err)
	}

	// Faults arrive with a 500 status, so the body is decoded before the
	// status code is considered.
	result, err := decodeResponse(body)
	if err != nil {
		if _, ok := IsFault(err); !ok && resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
		}
		return nil, err
	}

	c.logger.Debug("checkVat response received",
		slog.String("country_code", result.CountryCode),
		slog.Bool("valid", result.Valid))

	return result, nil
}
