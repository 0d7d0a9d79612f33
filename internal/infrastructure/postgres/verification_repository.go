package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/account-service/internal/domain/entity"
	"github.com/oksasatya/account-service/internal/domain/repository"
)

const verificationColumns = `id::text, account_id::text, token_hash, created_at, expires_at`

type VerificationRepository struct {
	db DB
}

func NewVerificationRepository(db DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, v *entity.Verification) error {
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO account_verifications (account_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, v.AccountID, v.TokenHash, v.CreatedAt, v.ExpiresAt)

	if err := row.Scan(&v.ID); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func scanVerification(row pgx.Row) (*entity.Verification, error) {
	v := &entity.Verification{}
	if err := row.Scan(&v.ID, &v.AccountID, &v.TokenHash, &v.CreatedAt, &v.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VerificationRepository) GetByAccountID(ctx context.Context, accountID string) (*entity.Verification, error) {
	if !validID(accountID) {
		return nil, repository.ErrNotFound
	}
	return scanVerification(conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+verificationColumns+`
		FROM account_verifications
		WHERE account_id = $1
	`, accountID))
}

func (r *VerificationRepository) DeleteByAccountID(ctx context.Context, accountID string) (bool, error) {
	if !validID(accountID) {
		return false, nil
	}
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM account_verifications WHERE account_id = $1`, accountID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *VerificationRepository) ListExpired(ctx context.Context, now time.Time) ([]*entity.Verification, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT `+verificationColumns+`
		FROM account_verifications
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var _ repository.VerificationRepository = (*VerificationRepository)(nil)
