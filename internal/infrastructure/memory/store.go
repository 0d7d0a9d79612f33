// Package memory is an in-process account store for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
)

// Store holds accounts and verification challenges in maps.
// Entities are copied on the way in and out.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]*entity.Account
	emails        map[string]string
	verifications map[string]*entity.Verification // by account id

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		accounts:      map[string]*entity.Account{},
		emails:        map[string]string{},
		verifications: map[string]*entity.Verification{},
	}
}

func (s *Store) Accounts() *AccountRepository           { return &AccountRepository{s: s} }
func (s *Store) Verifications() *VerificationRepository { return &VerificationRepository{s: s} }

type txKey struct{}

// txState is the undo journal of one open transaction.
type txState struct {
	store         *Store
	accounts      journal[*entity.Account]
	verifications journal[*entity.Verification]
}

// change remembers a key's value before the transaction first wrote it and
// the value the transaction last left there.
type change[V comparable] struct {
	before  V
	existed bool
	after   V
	exists  bool
}

type journal[V comparable] map[string]*change[V]

// write applies fn to m[key], journaling the key when j is not nil. Callers hold s.mu.
func write[V comparable](j journal[V], m map[string]V, key string, fn func()) {
	if j == nil {
		fn()
		return
	}
	c, ok := j[key]
	if !ok {
		v, had := m[key]
		c = &change[V]{before: v, existed: had}
		j[key] = c
	}
	fn()
	c.after, c.exists = m[key]
}

// unwritten reports whether m[key] still holds what the transaction left there.
func (c *change[V]) unwritten(m map[string]V, key string) bool {
	cur, has := m[key]
	return has == c.exists && cur == c.after
}

func (s *Store) tx(ctx context.Context) *txState {
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.store == s {
		return st
	}
	return nil
}

// WithinTx serialises transactions and, when fn fails, reverts only the keys
// fn wrote. A key changed again outside the transaction keeps that change.
// Nested calls join the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx(ctx) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	st := &txState{
		store:         s,
		accounts:      journal[*entity.Account]{},
		verifications: journal[*entity.Verification]{},
	}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		s.rollback(st)
		return err
	}
	return nil
}

func (s *Store) rollback(st *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range st.accounts {
		if !c.unwritten(s.accounts, id) {
			continue
		}
		if c.exists && s.emails[c.after.Email] == id {
			delete(s.emails, c.after.Email)
		}
		if c.existed {
			s.accounts[id] = c.before
			s.emails[c.before.Email] = id
		} else {
			delete(s.accounts, id)
		}
	}
	for id, c := range st.verifications {
		if !c.unwritten(s.verifications, id) {
			continue
		}
		if c.existed {
			s.verifications[id] = c.before
		} else {
			delete(s.verifications, id)
		}
	}
}

func (s *Store) accountJournal(ctx context.Context) journal[*entity.Account] {
	if st := s.tx(ctx); st != nil {
		return st.accounts
	}
	return nil
}

func (s *Store) verificationJournal(ctx context.Context) journal[*entity.Verification] {
	if st := s.tx(ctx); st != nil {
		return st.verifications
	}
	return nil
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.emails[a.Email]; ok {
		return repo.ErrDuplicate
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, ok := r.s.accounts[a.ID]; ok {
		return repo.ErrDuplicate
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	cp := *a
	write(r.s.accountJournal(ctx), r.s.accounts, a.ID, func() {
		r.s.accounts[a.ID] = &cp
		r.s.emails[a.Email] = a.ID
	})
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r.s.accounts[id]
	return &cp, nil
}

func (r *AccountRepository) SetVerified(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	cp := *a
	cp.Verified = true
	cp.UpdatedAt = time.Now().UTC()
	write(r.s.accountJournal(ctx), r.s.accounts, id, func() { r.s.accounts[id] = &cp })
	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.emails[email]
	if !ok {
		return repo.ErrNotFound
	}
	cp := *r.s.accounts[id]
	cp.PasswordHash = passwordHash
	cp.UpdatedAt = time.Now().UTC()
	write(r.s.accountJournal(ctx), r.s.accounts, id, func() { r.s.accounts[id] = &cp })
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	write(r.s.accountJournal(ctx), r.s.accounts, id, func() {
		delete(r.s.emails, a.Email)
		delete(r.s.accounts, id)
	})
	return nil
}

func (r *AccountRepository) ListUnverifiedBefore(_ context.Context, before time.Time) ([]*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Account
	for _, a := range r.s.accounts {
		if !a.Verified && a.CreatedAt.Before(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type VerificationRepository struct{ s *Store }

func (r *VerificationRepository) Create(ctx context.Context, v *entity.Verification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.verifications[v.AccountID]; ok {
		return repo.ErrDuplicate
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	cp := *v
	write(r.s.verificationJournal(ctx), r.s.verifications, v.AccountID, func() {
		r.s.verifications[v.AccountID] = &cp
	})
	return nil
}

func (r *VerificationRepository) GetByAccountID(_ context.Context, accountID string) (*entity.Verification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.verifications[accountID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *VerificationRepository) DeleteByAccountID(ctx context.Context, accountID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.verifications[accountID]; !ok {
		return false, nil
	}
	write(r.s.verificationJournal(ctx), r.s.verifications, accountID, func() {
		delete(r.s.verifications, accountID)
	})
	return true, nil
}

func (r *VerificationRepository) ListExpired(_ context.Context, now time.Time) ([]*entity.Verification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Verification
	for _, v := range r.s.verifications {
		if v.IsExpired(now) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}
