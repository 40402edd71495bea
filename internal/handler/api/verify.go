package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/dukerupert/vatcheck/internal/vies"
)

// Checker is the part of the vies client the verify endpoint needs.
type Checker interface {
	Check(ctx context.Context, countryCode, vatNumber string) (*vies.CheckResult, error)
}

// VerifyHandler serves the remote verification endpoint.
type VerifyHandler struct {
	checker Checker
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewVerifyHandler creates a new verification handler. metrics may be nil in
// tests.
func NewVerifyHandler(
	checker Checker,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *VerifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyHandler{
		checker: checker,
		metrics: metrics,
		logger:  logger,
	}
}

// VerificationResponse is the JSON body for a completed exchange.
type VerificationResponse struct {
	CountryCode string `json:"country_code"`
	VATNumber   string `json:"vat_number"`
	RequestDate string `json:"request_date"`
	Valid       bool   `json:"valid"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
}

// faultResponse carries the service's fault envelope verbatim.
type faultResponse struct {
	Error       string `json:"error"`
	FaultCode   string `json:"fault_code"`
	FaultString string `json:"fault_string"`
}

// Verify handles GET /api/vat/verify?country=PT&code=502011378
//
// Response codes:
// - 200 OK: The service answered; valid may be true or false
// - 400 Bad Request: Missing parameters or ineligible country
// - 502 Bad Gateway: The service returned a fault or an unreadable body
// - 504 Gateway Timeout: The exchange did not complete
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	code := r.URL.Query().Get("code")
	if country == "" || code == "" {
		respondError(w, http.StatusBadRequest, "country and code query parameters are required")
		return
	}

	logger := middleware.GetLogger(r.Context(), h.logger)

	start := time.Now()
	result, err := h.checker.Check(r.Context(), country, code)
	duration := time.Since(start)

	if err != nil {
		h.respondCheckError(w, logger, country, err)
		return
	}

	outcome := telemetry.VerifyOutcomeValid
	if !result.Valid {
		outcome = telemetry.VerifyOutcomeInvalid
	}
	h.record(result.CountryCode, outcome, duration)

	logger.Info("vat number verified",
		slog.String("country_code", result.CountryCode),
		slog.Bool("valid", result.Valid),
		slog.Duration("duration", duration))

	respondJSON(w, http.StatusOK, VerificationResponse{
		CountryCode: result.CountryCode,
		VATNumber:   result.VATNumber,
		RequestDate: result.RequestDate.Format("2006-01-02"),
		Valid:       result.Valid,
		Name:        result.Name,
		Address:     result.Address,
	})
}

func (h *VerifyHandler) respondCheckError(w http.ResponseWriter, logger *slog.Logger, country string, err error) {
	cc := strings.ToUpper(strings.TrimSpace(country))

	if errors.Is(err, vies.ErrUnknownCountry) {
		// Rejected before any exchange, so no latency to record.
		respondError(w, http.StatusBadRequest, "country is not eligible for verification")
		return
	}

	if fault, ok := vies.IsFault(err); ok {
		h.record(cc, telemetry.VerifyOutcomeFault, 0)
		logger.Warn("verification fault",
			slog.String("country_code", cc),
			slog.String("fault_code", fault.Code),
			slog.String("fault_string", fault.Message))
		respondJSON(w, http.StatusBadGateway, faultResponse{
			Error:       "verification service fault",
			FaultCode:   fault.Code,
			FaultString: fault.Message,
		})
		return
	}

	h.record(cc, telemetry.VerifyOutcomeError, 0)
	logger.Error("verification failed",
		slog.String("country_code", cc),
		slog.Any("error", err))

	if errors.Is(err, vies.ErrMalformedResponse) {
		respondError(w, http.StatusBadGateway, "verification service returned an unreadable response")
		return
	}
	respondError(w, http.StatusGatewayTimeout, "verification service is unreachable")
}

func (h *VerifyHandler) record(country, outcome string, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.VerificationChecks.WithLabelValues(country, outcome).Inc()
	if duration > 0 {
		h.metrics.VerificationLatency.WithLabelValues(country).Observe(duration.Seconds())
	}
}
