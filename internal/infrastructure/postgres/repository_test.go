package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

var accountCols = []string{"id", "email", "password_hash", "email_verified", "role", "profile_image_url", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestAccountRepository_CreatePending(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("a@x.com", "", false, "BASIC", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("acc-1", now, now))

	a := entity.NewPendingAccount("a@x.com")
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, "acc-1", a.ID)
	assert.Equal(t, now, a.CreatedAt)
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("a@x.com", "", false, "BASIC", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), entity.NewPendingAccount("a@x.com"))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM accounts WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(accountCols).AddRow("acc-1", "a@x.com", "", true, "PREMIUM", "", now, now))

	a, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RolePremium, a.Role)
	assert.True(t, a.EmailVerified)
	assert.Equal(t, entity.StateVerified, a.RegistrationState())
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_ExistsByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs("a@x.com", "hash", true, "PREMIUM", "", "acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

	a := &entity.Account{ID: "acc-1", Email: "a@x.com", PasswordHash: "hash", EmailVerified: true, Role: entity.RolePremium}
	require.NoError(t, repo.Update(context.Background(), a))
	assert.Equal(t, now, a.UpdatedAt)

	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs("a@x.com", "hash", true, "PREMIUM", "", "gone").
		WillReturnError(pgx.ErrNoRows)
	a.ID = "gone"
	assert.ErrorIs(t, repo.Update(context.Background(), a), repository.ErrNotFound)
}

func TestVerificationCodeRepository_SaveReplacesInTx(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationCodeRepository(mock)
	now := time.Now().UTC()
	vc := entity.NewVerificationCode("acc-1", "1234", now)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM verification_codes WHERE account_id = \$1`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`INSERT INTO verification_codes`).
		WithArgs("acc-1", "1234", vc.ExpiresAt, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("vc-1"))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), vc))
	assert.Equal(t, "vc-1", vc.ID)
}

func TestVerificationCodeRepository_SaveRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationCodeRepository(mock)
	vc := entity.NewVerificationCode("acc-1", "1234", time.Now().UTC())
	boom := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM verification_codes`).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`INSERT INTO verification_codes`).
		WithArgs("acc-1", "1234", vc.ExpiresAt, vc.CreatedAt).
		WillReturnError(boom)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Save(context.Background(), vc), boom)
}

func TestVerificationCodeRepository_GetAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationCodeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, account_id, code, expires_at, created_at`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "code", "expires_at", "created_at"}).
			AddRow("vc-1", "acc-1", "4321", now.Add(5*time.Minute), now))
	mock.ExpectExec(`DELETE FROM verification_codes WHERE id = \$1`).
		WithArgs("vc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`SELECT id, account_id, code, expires_at, created_at`).
		WithArgs("acc-2").
		WillReturnError(pgx.ErrNoRows)

	vc, err := repo.GetByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "4321", vc.Code)
	require.NoError(t, repo.Delete(context.Background(), vc.ID))

	_, err = repo.GetByAccount(context.Background(), "acc-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
