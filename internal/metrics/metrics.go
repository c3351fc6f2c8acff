package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DonationDecisions counts decisions by decision and outcome
	DonationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solidapp_donation_decisions_total",
			Help: "Donation decisions processed, by decision and outcome",
		},
		[]string{"decision", "outcome"},
	)

	// BenefitClaimDuration tracks latency of benefit claims
	BenefitClaimDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "solidapp_benefit_claim_duration_seconds",
			Help: "Duration of benefit claim requests in seconds",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5,
			},
		},
		[]string{"outcome"},
	)
)

// RecordDonationDecision records one processed decision
func RecordDonationDecision(decision string, outcome string) {
	DonationDecisions.WithLabelValues(decision, outcome).Inc()
}

// RecordBenefitClaim records the duration of one claim request
func RecordBenefitClaim(outcome string, seconds float64) {
	BenefitClaimDuration.WithLabelValues(outcome).Observe(seconds)
}
