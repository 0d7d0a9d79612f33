package application

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Signup outcome labels.
const (
	SignupPending   = "pending"
	SignupRejected  = "rejected"
	SignupDuplicate = "duplicate"
	SignupFailed    = "failed"
)

var signups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "account_signups_total",
		Help: "Signup attempts by outcome",
	},
	[]string{"outcome"},
)

var redemptions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "account_verification_redemptions_total",
		Help: "Verification link redemptions by result",
	},
	[]string{"result"},
)

var sweptAccounts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "account_sweep_removed_total",
		Help: "Pending accounts removed by the reconciliation sweep",
	},
	[]string{"reason"},
)

// RegisterMetrics registers the account lifecycle metrics with reg.
// Panics if registration fails (prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(signups, redemptions, sweptAccounts)
}

func signupOutcome(err error) string {
	switch {
	case err == nil:
		return SignupPending
	case errors.Is(err, ErrValidation):
		return SignupRejected
	case errors.Is(err, ErrDuplicateAccount):
		return SignupDuplicate
	default:
		return SignupFailed
	}
}

func recordSignup(err error) {
	signups.WithLabelValues(signupOutcome(err)).Inc()
}

func recordRedemption(r RedemptionResult) {
	redemptions.WithLabelValues(r.String()).Inc()
}

func recordSweep(r SweepReport) {
	sweptAccounts.WithLabelValues("expired").Add(float64(r.ExpiredChallenges))
	sweptAccounts.WithLabelValues("orphaned").Add(float64(r.OrphanedAccounts))
}
