package repository

import (
	"context"
	"time"

	"github.com/oksasatya/account-service/internal/domain/entity"
)

// VerificationRepository persists verification challenges, at most one per account.
type VerificationRepository interface {
	Create(ctx context.Context, v *entity.Verification) error
	GetByAccountID(ctx context.Context, accountID string) (*entity.Verification, error)
	// DeleteByAccountID reports whether a challenge was removed.
	DeleteByAccountID(ctx context.Context, accountID string) (bool, error)
	ListExpired(ctx context.Context, now time.Time) ([]*entity.Verification, error)
}
