package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned by stores when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would break a uniqueness rule, e.g. a taken email.
	ErrConflict = errors.New("record already exists")
)

// AccountRepository defines the persistence operations on accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, a *entity.Account) error
}

// VerificationCodeRepository stores at most one live code per account.
type VerificationCodeRepository interface {
	GetByAccount(ctx context.Context, accountID string) (*entity.VerificationCode, error)
	// Save atomically replaces any code the account already has with vc.
	Save(ctx context.Context, vc *entity.VerificationCode) error
	Delete(ctx context.Context, id string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}
