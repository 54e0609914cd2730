package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

// AccountRepository keeps accounts in process memory. Returned values are copies.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entity.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[a.Email]; ok {
		return repository.ErrConflict
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = entity.RoleBasic
	}
	now := r.now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.byID[a.ID] = &cp
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *AccountRepository) Update(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Email != a.Email {
		if _, taken := r.byEmail[a.Email]; taken {
			return repository.ErrConflict
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[a.Email] = a.ID
	}
	a.UpdatedAt = r.now()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
