package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/dukerupert/vatcheck/internal/vat"
)

// VATHandler serves the offline validation endpoints.
type VATHandler struct {
	registry *vat.Registry
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewVATHandler creates a new VAT validation handler. metrics may be nil in
// tests.
func NewVATHandler(
	registry *vat.Registry,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *VATHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VATHandler{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// ValidationResponse is the JSON body for GET /api/vat/validate.
type ValidationResponse struct {
	CountryCode   string `json:"country_code"`
	Code          string `json:"code"`
	KnownCountry  bool   `json:"known_country"`
	FormatValid   bool   `json:"format_valid"`
	ChecksumValid bool   `json:"checksum_valid"`
	Valid         bool   `json:"valid"`
}

// Validate handles GET /api/vat/validate?country=PT&code=502011378
//
// Response codes:
// - 200 OK: Verdict computed (the number itself may still be invalid)
// - 400 Bad Request: Missing query parameters
//
// An unknown country is a 200 with valid=false, not an error: validation
// fails closed.
func (h *VATHandler) Validate(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	code := r.URL.Query().Get("code")
	if country == "" || code == "" {
		respondError(w, http.StatusBadRequest, "country and code query parameters are required")
		return
	}

	ins := h.registry.Inspect(country, code)
	h.recordValidation(ins)

	middleware.GetLogger(r.Context(), h.logger).Debug("validated vat number",
		slog.String("country_code", ins.CountryCode),
		slog.Bool("valid", ins.Valid))

	respondJSON(w, http.StatusOK, ValidationResponse{
		CountryCode:   ins.CountryCode,
		Code:          ins.Sanitized,
		KnownCountry:  ins.KnownCountry,
		FormatValid:   ins.FormatOK,
		ChecksumValid: ins.ChecksumOK,
		Valid:         ins.Valid,
	})
}

func (h *VATHandler) recordValidation(ins vat.Inspection) {
	if h.metrics == nil {
		return
	}

	// Unregistered country codes come straight from user input, so they are
	// collapsed into one label value to keep cardinality bounded.
	country := ins.CountryCode
	outcome := telemetry.OutcomeValid
	switch {
	case !ins.KnownCountry:
		country = "unknown"
		outcome = telemetry.OutcomeUnknownCountry
	case !ins.FormatOK:
		outcome = telemetry.OutcomeFormatMismatch
	case !ins.ChecksumOK:
		outcome = telemetry.OutcomeChecksumFailure
	}
	h.metrics.ValidationChecks.WithLabelValues(country, outcome).Inc()
}

// CountriesResponse is the JSON body for GET /api/vat/countries.
type CountriesResponse struct {
	Code      string   `json:"code"`
	Countries []string `json:"countries"`
}

// Countries handles GET /api/vat/countries?code=502011378
//
// It reports every jurisdiction for which the code is a valid VAT number, in
// lexicographic order. An empty list is a normal answer.
func (h *VATHandler) Countries(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	matches := h.registry.CountriesWhereValid(code)
	if h.metrics != nil {
		h.metrics.ReverseLookups.Inc()
		h.metrics.ReverseMatches.Observe(float64(len(matches)))
	}

	middleware.GetLogger(r.Context(), h.logger).Debug("reverse lookup",
		slog.Int("matches", len(matches)))

	respondJSON(w, http.StatusOK, CountriesResponse{
		Code:      code,
		Countries: matches,
	})
}
