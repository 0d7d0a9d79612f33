package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/helpers"
)

// MinSweepGrace is the youngest an account can be and still count as orphaned.
// Redeem deletes the challenge before it marks the account verified, and without
// a transaction the account looks orphaned in between. A challenge is only
// redeemable until VerificationTTL after signup, so past this age that gap can
// only be seen if a redemption stalls for over a minute. The orphan pass also
// re-reads the account and skips it once verified.
const MinSweepGrace = entity.VerificationTTL + time.Minute

// SweepReport counts what one sweep removed.
type SweepReport struct {
	ExpiredChallenges int
	OrphanedAccounts  int
}

// Sweeper removes expired challenges with their pending accounts, and unverified
// accounts that lost their challenge (e.g. a half-finished signup).
type Sweeper struct {
	Accounts      repo.AccountRepository
	Verifications repo.VerificationRepository
	Tx            repo.Transactor
	Logger        *logrus.Logger
	// Grace is how old an unverified account without a challenge must be before removal.
	// It never drops below MinSweepGrace.
	Grace time.Duration

	now Clock
}

func NewSweeper(accounts repo.AccountRepository, verifications repo.VerificationRepository, tx repo.Transactor, grace time.Duration, logger *logrus.Logger) *Sweeper {
	if tx == nil {
		tx = repo.NoTx
	}
	if grace < MinSweepGrace {
		grace = MinSweepGrace
	}
	return &Sweeper{
		Accounts:      accounts,
		Verifications: verifications,
		Tx:            tx,
		Logger:        logger,
		Grace:         grace,
		now:           time.Now,
	}
}

// Sweep runs one pass. Per-item failures are collected and do not stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var (
		report SweepReport
		errs   []error
	)
	now := s.now().UTC()

	expired, err := s.Verifications.ListExpired(ctx, now)
	if err != nil {
		return report, err
	}
	for _, v := range expired {
		if err := discardPending(ctx, s.Tx, s.Accounts, s.Verifications, v.AccountID); err != nil {
			errs = append(errs, err)
			continue
		}
		report.ExpiredChallenges++
	}

	grace := max(s.Grace, MinSweepGrace)
	stale, err := s.Accounts.ListUnverifiedBefore(ctx, now.Add(-grace))
	if err != nil {
		return report, errors.Join(append(errs, err)...)
	}
	for _, a := range stale {
		_, err := s.Verifications.GetByAccountID(ctx, a.ID)
		if err == nil {
			continue // still redeemable
		}
		if !errors.Is(err, repo.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		current, err := s.Accounts.GetByID(ctx, a.ID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if current.Verified {
			continue // redeemed since the listing
		}
		if err := s.Accounts.Delete(ctx, a.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		report.OrphanedAccounts++
	}
	return report, errors.Join(errs...)
}

// Run sweeps every interval until ctx is done. A non-positive interval disables it.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			report, err := s.Sweep(ctx)
			recordSweep(report)
			if err != nil {
				helpers.LogError(s.Logger, "sweep finished with errors", err, nil)
			}
			if report.ExpiredChallenges > 0 || report.OrphanedAccounts > 0 {
				helpers.LogInfo(s.Logger, "sweep removed pending accounts", logrus.Fields{
					"expired_challenges": report.ExpiredChallenges,
					"orphaned_accounts":  report.OrphanedAccounts,
				})
			}
		}
	}
}
