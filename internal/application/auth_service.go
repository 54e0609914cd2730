package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	repo "github.com/oksasatya/go-event-api/internal/domain/repository"
	"github.com/oksasatya/go-event-api/internal/metrics"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

// TokenMinter issues bearer tokens; implemented by helpers.JWTManager.
type TokenMinter interface {
	Mint(subject, email, role string) (string, time.Time, error)
}

// LoginResult is what a successful login or promotion hands back to the client.
type LoginResult struct {
	AccountID string
	Email     string
	Role      entity.Role
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	accounts repo.AccountRepository
	hasher   repo.PasswordHasher
	tokens   TokenMinter
	locker   repo.Locker
	policy   entity.PromotionPolicy
	index    repo.AccountIndex
	logger   *logrus.Logger
}

func NewAuthService(
	accounts repo.AccountRepository,
	hasher repo.PasswordHasher,
	tokens TokenMinter,
	locker repo.Locker,
	policy entity.PromotionPolicy,
	index repo.AccountIndex,
	logger *logrus.Logger,
) *AuthService {
	if policy == nil {
		policy = entity.DefaultPromotionPolicy()
	}
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		locker:   locker,
		policy:   policy,
		index:    index,
		logger:   logger,
	}
}

// Login checks credentials of a complete account and mints a token.
// Rejections are *LoginFailError; any other error is an infrastructure failure.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	a, err := findAccount(ctx, s.accounts, email)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	switch {
	case a == nil:
		metrics.Logins.WithLabelValues(metrics.OutcomeNotRegistered).Inc()
		return nil, loginFail(ReasonNotRegistered)
	case !a.IsComplete():
		metrics.Logins.WithLabelValues(metrics.OutcomeIncomplete).Inc()
		return nil, loginFail(ReasonIncomplete)
	case !s.hasher.Matches(password, a.PasswordHash):
		metrics.Logins.WithLabelValues(metrics.OutcomeBadCredentials).Inc()
		return nil, loginFail(ReasonBadCredentials)
	}

	res, err := s.mint(a)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.WithField("account_id", a.ID).Info("login success")
	return res, nil
}

// Promote moves the account one step along the promotion policy, persists it
// and mints a token carrying the new role.
func (s *AuthService) Promote(ctx context.Context, accountID string) (*LoginResult, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	// Re-read under the registration lock so a concurrent finalize is not overwritten.
	err = s.locker.WithLock(ctx, helpers.KeyRegistrationLock(a.Email), func(ctx context.Context) error {
		cur, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		from := cur.Role
		cur.Role = s.policy.Next(from)
		if cur.Role != from {
			if err := s.accounts.Update(ctx, cur); err != nil {
				return fmt.Errorf("store role: %w", err)
			}
			metrics.Promotions.WithLabelValues(from.String(), cur.Role.String()).Inc()
			indexAccount(ctx, s.index, s.logger, cur)
			s.logger.WithFields(logrus.Fields{"account_id": cur.ID, "from": from, "to": cur.Role}).Info("account promoted")
		}
		a = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.mint(a)
}

func (s *AuthService) mint(a *entity.Account) (*LoginResult, error) {
	tok, exp, err := s.tokens.Mint(a.ID, a.Email, a.Role.String())
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	return &LoginResult{AccountID: a.ID, Email: a.Email, Role: a.Role, Token: tok, ExpiresAt: exp}, nil
}
