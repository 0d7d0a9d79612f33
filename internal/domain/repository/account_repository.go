package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/account-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no record matches the filter.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrLocked is returned by a SignupLocker when the key is already held.
	ErrLocked = errors.New("lock held")
)

// AccountRepository defines the interface for account persistence.
// Lookups by email are exact, case-sensitive matches.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	SetVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	Delete(ctx context.Context, id string) error
	// ListUnverifiedBefore returns unverified accounts created before the given instant.
	ListUnverifiedBefore(ctx context.Context, before time.Time) ([]*entity.Account, error)
}
