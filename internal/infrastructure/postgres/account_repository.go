package postgres

import (
	"context"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

// password_hash is NULL until registration is finalized; it maps to "".
const accountColumns = `id, email, COALESCE(password_hash, ''), email_verified, role, profile_image_url, created_at, updated_at`

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	if a.Role == "" {
		a.Role = entity.RoleBasic
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, email_verified, role, profile_image_url)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, a.Email, a.PasswordHash, a.EmailVerified, string(a.Role), a.ProfileImageURL)

	return mapErr(row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (*entity.Account, error) {
	a := &entity.Account{}
	var role string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.EmailVerified, &role,
		&a.ProfileImageURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	a.Role = entity.Role(role)
	return a, nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) Update(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET email = $1, password_hash = NULLIF($2, ''), email_verified = $3, role = $4,
		    profile_image_url = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, a.Email, a.PasswordHash, a.EmailVerified, string(a.Role), a.ProfileImageURL, a.ID)

	return mapErr(row.Scan(&a.UpdatedAt))
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
