package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/helpers"
)

// Hasher is the credential codec used for passwords and raw tokens.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// RedemptionResult is the outcome of presenting a raw verification token.
type RedemptionResult int

const (
	// RedemptionNoChallenge: nothing to redeem for the account, no mutation.
	RedemptionNoChallenge RedemptionResult = iota
	// RedemptionExpired: the challenge and its pending account were discarded.
	RedemptionExpired
	// RedemptionMismatch: wrong token, no mutation.
	RedemptionMismatch
	// RedemptionSuccess: account verified, challenge consumed.
	RedemptionSuccess
)

func (r RedemptionResult) String() string {
	switch r {
	case RedemptionNoChallenge:
		return "no_challenge"
	case RedemptionExpired:
		return "expired"
	case RedemptionMismatch:
		return "mismatch"
	case RedemptionSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Clock returns the current time.
type Clock func() time.Time

// VerificationService mints, stores and redeems single-use email verification tokens.
type VerificationService struct {
	Accounts      repo.AccountRepository
	Verifications repo.VerificationRepository
	Tx            repo.Transactor
	Codec         Hasher
	Logger        *logrus.Logger

	now      Clock
	newToken func() string
}

type VerificationOption func(*VerificationService)

// WithVerificationClock overrides time.Now.
func WithVerificationClock(c Clock) VerificationOption {
	return func(s *VerificationService) { s.now = c }
}

func NewVerificationService(accounts repo.AccountRepository, verifications repo.VerificationRepository, tx repo.Transactor, codec Hasher, logger *logrus.Logger, opts ...VerificationOption) *VerificationService {
	if tx == nil {
		tx = repo.NoTx
	}
	s := &VerificationService{
		Accounts:      accounts,
		Verifications: verifications,
		Tx:            tx,
		Codec:         codec,
		Logger:        logger,
		now:           time.Now,
		newToken:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a challenge for accountID and returns the raw token for delivery.
// Only the hash of the token is persisted.
func (s *VerificationService) Issue(ctx context.Context, accountID string) (string, *entity.Verification, error) {
	raw := s.newToken()
	hash, err := s.Codec.Hash(raw)
	if err != nil {
		return "", nil, s.fail(StageIssueChallenge, ErrHashing, err, accountID)
	}
	now := s.now().UTC()
	v := &entity.Verification{
		AccountID: accountID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(entity.VerificationTTL),
	}
	if err := s.Verifications.Create(ctx, v); err != nil {
		return "", nil, s.fail(StageIssueChallenge, ErrStorage, err, accountID)
	}
	return raw, v, nil
}

var errAlreadyConsumed = errors.New("challenge already consumed")

// Redeem checks rawToken against the account's challenge.
// Expiry is checked before the token so an expired token never reveals whether it was right.
func (s *VerificationService) Redeem(ctx context.Context, accountID, rawToken string) (RedemptionResult, error) {
	v, err := s.Verifications.GetByAccountID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return RedemptionNoChallenge, nil
	}
	if err != nil {
		return RedemptionNoChallenge, s.fail(StageLookupChallenge, ErrStorage, err, accountID)
	}

	if v.IsExpired(s.now()) {
		if err := discardPending(ctx, s.Tx, s.Accounts, s.Verifications, accountID); err != nil {
			return RedemptionExpired, s.fail(StageClearExpired, ErrStorage, err, accountID)
		}
		return RedemptionExpired, nil
	}

	ok, err := s.Codec.Verify(rawToken, v.TokenHash)
	if err != nil {
		return RedemptionMismatch, s.fail(StageCompareToken, ErrHashing, err, accountID)
	}
	if !ok {
		return RedemptionMismatch, nil
	}

	// Deleting the challenge first makes concurrent redemptions race on a
	// single delete; only the winner flips the account.
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		deleted, err := s.Verifications.DeleteByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		if !deleted {
			return errAlreadyConsumed
		}
		if err := s.Accounts.SetVerified(ctx, accountID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errAlreadyConsumed
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errAlreadyConsumed) {
		return RedemptionNoChallenge, nil
	}
	if err != nil {
		return RedemptionNoChallenge, s.fail(StageMarkVerified, ErrStorage, err, accountID)
	}
	helpers.LogInfo(s.Logger, "account verified", logrus.Fields{"account_id": accountID})
	return RedemptionSuccess, nil
}

func (s *VerificationService) fail(stage Stage, kind, err error, accountID string) error {
	helpers.LogError(s.Logger, "verification step failed", err, logrus.Fields{
		"stage":      string(stage),
		"account_id": accountID,
	})
	return stageErr(stage, kind, err)
}

// discardPending removes a challenge together with the account it was issued for.
func discardPending(ctx context.Context, tx repo.Transactor, accounts repo.AccountRepository, verifications repo.VerificationRepository, accountID string) error {
	return tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := verifications.DeleteByAccountID(ctx, accountID); err != nil {
			return err
		}
		if err := accounts.Delete(ctx, accountID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		return nil
	})
}
