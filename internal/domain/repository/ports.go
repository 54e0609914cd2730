package repository

import (
	"context"
	"io"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
)

// Mailer delivers a message to a single address.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PasswordHasher is a one-way hash with verification.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, digest string) bool
}

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// AccountIndex is a secondary, search-oriented copy of account data.
type AccountIndex interface {
	Index(ctx context.Context, a *entity.Account) error
	Search(ctx context.Context, query string, size int) ([]entity.Account, error)
}

// ObjectUploader stores a binary object and returns its public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
