package repository

import "context"

// Transactor runs fn as one unit of work. Repositories called with the ctx
// handed to fn take part in the same transaction when the backend supports it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a plain function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx runs fn directly, for backends without multi-document transactions.
var NoTx Transactor = TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// SignupLocker serialises concurrent signups for the same email.
type SignupLocker interface {
	// Lock returns ErrLocked when another signup holds the key.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
