package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	assert.Panics(t, func() { RegisterMetrics(reg) })
}

func TestSignupOutcome(t *testing.T) {
	assert.Equal(t, SignupPending, signupOutcome(nil))
	assert.Equal(t, SignupRejected, signupOutcome(&ValidationError{Kind: InvalidEmail}))
	assert.Equal(t, SignupDuplicate, signupOutcome(ErrDuplicateAccount))
	assert.Equal(t, SignupFailed, signupOutcome(fmt.Errorf("save: %w", ErrStorage)))
}

func TestMetrics_SignupAndRedemption(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pending := testutil.ToFloat64(signups.WithLabelValues(SignupPending))
	dup := testutil.ToFloat64(signups.WithLabelValues(SignupDuplicate))
	ok := testutil.ToFloat64(redemptions.WithLabelValues("success"))
	none := testutil.ToFloat64(redemptions.WithLabelValues("no_challenge"))

	id, raw := h.signup(t, validSignup())
	require.ErrorIs(t, h.svc.Signup(ctx, validSignup()), ErrDuplicateAccount)

	res, err := h.svc.RedeemVerification(ctx, id, raw)
	require.NoError(t, err)
	require.Equal(t, RedemptionSuccess, res)
	res, err = h.svc.RedeemVerification(ctx, id, raw)
	require.NoError(t, err)
	require.Equal(t, RedemptionNoChallenge, res)

	assert.Equal(t, pending+1, testutil.ToFloat64(signups.WithLabelValues(SignupPending)))
	assert.Equal(t, dup+1, testutil.ToFloat64(signups.WithLabelValues(SignupDuplicate)))
	assert.Equal(t, ok+1, testutil.ToFloat64(redemptions.WithLabelValues("success")))
	assert.Equal(t, none+1, testutil.ToFloat64(redemptions.WithLabelValues("no_challenge")))
}

func TestRecordSweep(t *testing.T) {
	expired := testutil.ToFloat64(sweptAccounts.WithLabelValues("expired"))
	orphaned := testutil.ToFloat64(sweptAccounts.WithLabelValues("orphaned"))

	recordSweep(SweepReport{ExpiredChallenges: 2, OrphanedAccounts: 1})

	assert.Equal(t, expired+2, testutil.ToFloat64(sweptAccounts.WithLabelValues("expired")))
	assert.Equal(t, orphaned+1, testutil.ToFloat64(sweptAccounts.WithLabelValues("orphaned")))
}
