package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

type VerificationCodeRepository struct {
	db DB
}

func NewVerificationCodeRepository(db DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func (r *VerificationCodeRepository) GetByAccount(ctx context.Context, accountID string) (*entity.VerificationCode, error) {
	vc := &entity.VerificationCode{}
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, code, expires_at, created_at
		FROM verification_codes
		WHERE account_id = $1
	`, accountID).Scan(&vc.ID, &vc.AccountID, &vc.Code, &vc.ExpiresAt, &vc.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return vc, nil
}

// Save deletes any existing code of the account and inserts vc in one transaction.
func (r *VerificationCodeRepository) Save(ctx context.Context, vc *entity.VerificationCode) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := replaceCode(ctx, tx, vc); err != nil {
		_ = tx.Rollback(ctx)
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

func replaceCode(ctx context.Context, tx pgx.Tx, vc *entity.VerificationCode) error {
	if _, err := tx.Exec(ctx, `DELETE FROM verification_codes WHERE account_id = $1`, vc.AccountID); err != nil {
		return err
	}
	return tx.QueryRow(ctx, `
		INSERT INTO verification_codes (account_id, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, vc.AccountID, vc.Code, vc.ExpiresAt, vc.CreatedAt).Scan(&vc.ID)
}

func (r *VerificationCodeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM verification_codes WHERE id = $1`, id)
	return err
}

func (r *VerificationCodeRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM verification_codes WHERE account_id = $1`, accountID)
	return err
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
