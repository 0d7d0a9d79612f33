package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
)

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	accounts := NewStore().Accounts()

	a := &entity.Account{Email: "ada@example.com", FirstName: "Ada"}
	require.NoError(t, accounts.Create(ctx, a))
	assert.NotEmpty(t, a.ID)

	got, err := accounts.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = accounts.GetByEmail(ctx, "ADA@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	err = accounts.Create(ctx, &entity.Account{Email: "ada@example.com"})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	accounts := NewStore().Accounts()
	a := &entity.Account{Email: "ada@example.com"}
	require.NoError(t, accounts.Create(ctx, a))

	got, err := accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	got.Verified = true

	again, err := accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, again.Verified)
}

func TestAccountRepository_Mutations(t *testing.T) {
	ctx := context.Background()
	accounts := NewStore().Accounts()
	a := &entity.Account{Email: "ada@example.com", PasswordHash: "old"}
	require.NoError(t, accounts.Create(ctx, a))

	require.NoError(t, accounts.SetVerified(ctx, a.ID))
	require.NoError(t, accounts.UpdatePassword(ctx, "ada@example.com", "new"))
	got, err := accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, "new", got.PasswordHash)

	assert.ErrorIs(t, accounts.UpdatePassword(ctx, "nobody@example.com", "x"), repo.ErrNotFound)
	assert.ErrorIs(t, accounts.SetVerified(ctx, "missing"), repo.ErrNotFound)

	require.NoError(t, accounts.Delete(ctx, a.ID))
	_, err = accounts.GetByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, accounts.Delete(ctx, a.ID), repo.ErrNotFound)
}

func TestAccountRepository_ListUnverifiedBefore(t *testing.T) {
	ctx := context.Background()
	accounts := NewStore().Accounts()
	old := time.Now().Add(-2 * time.Hour)

	require.NoError(t, accounts.Create(ctx, &entity.Account{Email: "old@example.com", CreatedAt: old}))
	require.NoError(t, accounts.Create(ctx, &entity.Account{Email: "verified@example.com", CreatedAt: old, Verified: true}))
	require.NoError(t, accounts.Create(ctx, &entity.Account{Email: "new@example.com"}))

	got, err := accounts.ListUnverifiedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old@example.com", got[0].Email)
}

func TestVerificationRepository(t *testing.T) {
	ctx := context.Background()
	verifications := NewStore().Verifications()
	now := time.Now()

	v := &entity.Verification{AccountID: "a1", TokenHash: "h", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, verifications.Create(ctx, v))
	assert.ErrorIs(t, verifications.Create(ctx, &entity.Verification{AccountID: "a1"}), repo.ErrDuplicate)

	got, err := verifications.GetByAccountID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "h", got.TokenHash)

	expired, err := verifications.ListExpired(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	deleted, err := verifications.DeleteByAccountID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = verifications.DeleteByAccountID(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Accounts().Create(ctx, &entity.Account{Email: "ada@example.com"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Accounts().GetByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error {
		return s.Accounts().Create(ctx, &entity.Account{Email: "ada@example.com"})
	}))
	_, err = s.Accounts().GetByEmail(ctx, "ada@example.com")
	assert.NoError(t, err)
}

func TestStore_RollbackKeepsWritesOutsideTx(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	accounts := s.Accounts()
	ada := &entity.Account{Email: "ada@example.com", PasswordHash: "old"}
	require.NoError(t, accounts.Create(ctx, ada))

	started := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context) error {
			if err := accounts.Create(ctx, &entity.Account{Email: "grace@example.com"}); err != nil {
				return err
			}
			close(started)
			<-proceed
			return errors.New("challenge failed")
		})
	}()

	<-started
	require.NoError(t, accounts.UpdatePassword(ctx, "ada@example.com", "new"))
	require.NoError(t, accounts.SetVerified(ctx, ada.ID))
	close(proceed)
	require.Error(t, <-done)

	got, err := accounts.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.True(t, got.Verified)

	_, err = accounts.GetByEmail(ctx, "grace@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStore_RollbackRestoresTxWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	accounts, verifications := s.Accounts(), s.Verifications()
	ada := &entity.Account{Email: "ada@example.com", PasswordHash: "old"}
	require.NoError(t, accounts.Create(ctx, ada))
	require.NoError(t, verifications.Create(ctx, &entity.Verification{AccountID: ada.ID, TokenHash: "h"}))

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, accounts.UpdatePassword(ctx, "ada@example.com", "tx"))
		deleted, err := verifications.DeleteByAccountID(ctx, ada.ID)
		require.NoError(t, err)
		require.True(t, deleted)
		require.NoError(t, accounts.Delete(ctx, ada.ID))
		// nested calls join the open transaction
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context) error {
			return accounts.Create(ctx, &entity.Account{Email: "grace@example.com"})
		}))
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := accounts.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)
	assert.Equal(t, "old", got.PasswordHash)
	_, err = verifications.GetByAccountID(ctx, ada.ID)
	assert.NoError(t, err)
	_, err = accounts.GetByEmail(ctx, "grace@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
