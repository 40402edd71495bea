package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcome label values.
const (
	OutcomeValid           = "valid"
	OutcomeFormatMismatch  = "format_mismatch"
	OutcomeChecksumFailure = "checksum_failure"
	OutcomeUnknownCountry  = "unknown_country"
)

// Remote verification outcome label values.
const (
	VerifyOutcomeValid   = "valid"
	VerifyOutcomeInvalid = "invalid"
	VerifyOutcomeFault   = "fault"
	VerifyOutcomeError   = "error"
)

// BusinessMetrics holds Prometheus metrics for domain-level observability,
// segmented by country code so dashboards can break traffic down per
// jurisdiction.
type BusinessMetrics struct {
	// Offline validation
	ValidationChecks *prometheus.CounterVec
	ReverseLookups   prometheus.Counter
	ReverseMatches   prometheus.Histogram

	// Remote verification
	VerificationChecks  *prometheus.CounterVec
	VerificationLatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "vatcheck"
	}

	subsystem := "business"

	return &BusinessMetrics{
		ValidationChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validation_checks_total",
				Help:      "Total offline VAT validations",
			},
			[]string{"country", "outcome"}, // outcome: valid, format_mismatch, checksum_failure, unknown_country
		),
		ReverseLookups: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reverse_lookups_total",
				Help:      "Total reverse lookups across all jurisdictions",
			},
		),
		ReverseMatches: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reverse_lookup_matches",
				Help:      "Number of jurisdictions accepting a code per reverse lookup",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
		),
		VerificationChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verification_checks_total",
				Help:      "Total remote verification exchanges",
			},
			[]string{"country", "outcome"}, // outcome: valid, invalid, fault, error
		),
		VerificationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verification_duration_seconds",
				Help:      "Remote verification exchange duration (helps differentiate app slowness from VIES issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"country"},
		),
	}
}
