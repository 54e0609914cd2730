package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

// VerificationCodeRepository holds at most one code per account, keyed by account id.
type VerificationCodeRepository struct {
	mu        sync.RWMutex
	byAccount map[string]*entity.VerificationCode
}

func NewVerificationCodeRepository() *VerificationCodeRepository {
	return &VerificationCodeRepository{byAccount: make(map[string]*entity.VerificationCode)}
}

func (r *VerificationCodeRepository) GetByAccount(_ context.Context, accountID string) (*entity.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vc, ok := r.byAccount[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *vc
	return &cp, nil
}

func (r *VerificationCodeRepository) Save(_ context.Context, vc *entity.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vc.ID = uuid.NewString()
	cp := *vc
	r.byAccount[vc.AccountID] = &cp
	return nil
}

func (r *VerificationCodeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for accountID, vc := range r.byAccount {
		if vc.ID == id {
			delete(r.byAccount, accountID)
			return nil
		}
	}
	return nil
}

func (r *VerificationCodeRepository) DeleteByAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byAccount, accountID)
	return nil
}

// Count returns the number of live codes.
func (r *VerificationCodeRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount)
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
