package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/account-service/internal/domain/entity"
	"github.com/oksasatya/account-service/internal/domain/repository"
)

const accountColumns = `id::text, lastname, firstname, email, password_hash, date_of_birth, verified, is_admin, created_at, updated_at`

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// validID rejects ids postgres would fail to cast to uuid; such ids match nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO accounts (lastname, firstname, email, password_hash, date_of_birth, verified, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text
	`, a.LastName, a.FirstName, a.Email, a.PasswordHash, a.DateOfBirth, a.Verified, a.IsAdmin, a.CreatedAt, a.UpdatedAt)

	if err := row.Scan(&a.ID); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	if err := row.Scan(&a.ID, &a.LastName, &a.FirstName, &a.Email, &a.PasswordHash,
		&a.DateOfBirth, &a.Verified, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanAccount(conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return scanAccount(conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email))
}

func (r *AccountRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetVerified(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	return r.exec(ctx, `
		UPDATE accounts
		SET verified = TRUE, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), id)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET password_hash = $1, updated_at = $2
		WHERE email = $3
	`, passwordHash, time.Now().UTC(), email)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	return r.exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) ListUnverifiedBefore(ctx context.Context, before time.Time) ([]*entity.Account, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE NOT verified AND created_at < $1
		ORDER BY created_at
	`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
