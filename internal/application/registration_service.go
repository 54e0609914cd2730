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
	mailtpl "github.com/oksasatya/go-event-api/pkg/mailer/templates"
)

// RegistrationOptions tunes RegistrationService. Zero values are usable.
type RegistrationOptions struct {
	AppName     string
	CompanyName string
	// RequireVerifiedEmail rejects FinalizeRegistration for accounts that never confirmed a code.
	RequireVerifiedEmail bool
	Index                repo.AccountIndex
	Clock                func() time.Time
	CodeGenerator        func() (string, error)
}

// RegistrationService drives an email through ABSENT -> PENDING -> VERIFIED -> COMPLETE.
// Every operation on one email runs under the registration lock for that email.
type RegistrationService struct {
	accounts repo.AccountRepository
	codes    repo.VerificationCodeRepository
	mailer   repo.Mailer
	hasher   repo.PasswordHasher
	locker   repo.Locker
	logger   *logrus.Logger
	opts     RegistrationOptions
}

func NewRegistrationService(
	accounts repo.AccountRepository,
	codes repo.VerificationCodeRepository,
	mailer repo.Mailer,
	hasher repo.PasswordHasher,
	locker repo.Locker,
	logger *logrus.Logger,
	opts RegistrationOptions,
) *RegistrationService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CodeGenerator == nil {
		opts.CodeGenerator = helpers.GenVerificationCode
	}
	return &RegistrationService{
		accounts: accounts,
		codes:    codes,
		mailer:   mailer,
		hasher:   hasher,
		locker:   locker,
		logger:   logger,
		opts:     opts,
	}
}

// RequestRegistration starts or restarts registration for email and reports
// whether the email already belongs to a complete account.
func (s *RegistrationService) RequestRegistration(ctx context.Context, email string) (bool, error) {
	var duplicate bool
	outcome := metrics.OutcomeError
	err := s.locker.WithLock(ctx, helpers.KeyRegistrationLock(email), func(ctx context.Context) error {
		a, err := findAccount(ctx, s.accounts, email)
		if err != nil {
			return err
		}
		switch a.RegistrationState() {
		case entity.StateComplete:
			duplicate = true
			outcome = metrics.OutcomeDuplicate
			return nil
		case entity.StateAbsent:
			a = entity.NewPendingAccount(email)
			if err := s.accounts.Create(ctx, a); err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			if err := s.issueCode(ctx, a); err != nil {
				return err
			}
			outcome = metrics.OutcomeNew
			return nil
		default:
			if err := s.codes.DeleteByAccount(ctx, a.ID); err != nil {
				return fmt.Errorf("delete previous code: %w", err)
			}
			if err := s.issueCode(ctx, a); err != nil {
				return err
			}
			outcome = metrics.OutcomeReissued
			return nil
		}
	})
	metrics.RegistrationRequests.WithLabelValues(outcome).Inc()
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("registration request failed")
		return false, err
	}
	return duplicate, nil
}

// SubmitCode checks code against the live code of email. A wrong or expired
// code is replaced by a freshly mailed one; a correct code verifies the account
// and is consumed.
func (s *RegistrationService) SubmitCode(ctx context.Context, email, code string) (bool, error) {
	var matched bool
	outcome := metrics.OutcomeError
	err := s.locker.WithLock(ctx, helpers.KeyRegistrationLock(email), func(ctx context.Context) error {
		a, err := findAccount(ctx, s.accounts, email)
		if err != nil {
			return err
		}
		if a == nil {
			outcome = metrics.OutcomeUnknown
			return nil
		}
		vc, err := s.codes.GetByAccount(ctx, a.ID)
		if errors.Is(err, repo.ErrNotFound) {
			outcome = metrics.OutcomeMismatch
			return nil
		}
		if err != nil {
			return fmt.Errorf("load code: %w", err)
		}

		if vc.Matches(code, s.opts.Clock()) {
			a.EmailVerified = true
			if err := s.accounts.Update(ctx, a); err != nil {
				return fmt.Errorf("mark verified: %w", err)
			}
			if err := s.codes.Delete(ctx, vc.ID); err != nil {
				return fmt.Errorf("consume code: %w", err)
			}
			s.reindex(ctx, a)
			matched = true
			outcome = metrics.OutcomeVerified
			return nil
		}

		if err := s.codes.Delete(ctx, vc.ID); err != nil {
			return fmt.Errorf("delete stale code: %w", err)
		}
		if err := s.issueCode(ctx, a); err != nil {
			return err
		}
		outcome = metrics.OutcomeMismatch
		return nil
	})
	metrics.CodeChecks.WithLabelValues(outcome).Inc()
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("code submission failed")
		return false, err
	}
	return matched, nil
}

// FinalizeRegistration stores the password hash on the account of email.
func (s *RegistrationService) FinalizeRegistration(ctx context.Context, email, password string) error {
	if password == "" {
		return ErrInvalidPassword
	}
	return s.locker.WithLock(ctx, helpers.KeyRegistrationLock(email), func(ctx context.Context) error {
		a, err := findAccount(ctx, s.accounts, email)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrAccountNotFound
		}
		if s.opts.RequireVerifiedEmail && !a.EmailVerified {
			return ErrEmailNotVerified
		}
		digest, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		a.PasswordHash = digest
		if err := s.accounts.Update(ctx, a); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
		s.reindex(ctx, a)
		s.logger.WithFields(logrus.Fields{"account_id": a.ID, "state": a.RegistrationState()}).Info("registration finalized")
		return nil
	})
}

// issueCode generates a code, mails it, then persists it. Nothing is stored when mailing fails.
func (s *RegistrationService) issueCode(ctx context.Context, a *entity.Account) error {
	code, err := s.opts.CodeGenerator()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	vc := entity.NewVerificationCode(a.ID, code, s.opts.Clock())

	subject, _, body, err := mailtpl.Render(mailtpl.VerifyCode, mailtpl.VerifyCodeData{
		AppName:     s.opts.AppName,
		CompanyName: s.opts.CompanyName,
		Email:       a.Email,
		Code:        vc.Code,
		ExpiresAt:   vc.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("render verification mail: %w", err)
	}
	if err := s.mailer.Send(ctx, a.Email, subject, body); err != nil {
		metrics.VerificationMails.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}
	metrics.VerificationMails.WithLabelValues(metrics.OutcomeSuccess).Inc()

	if err := s.codes.Save(ctx, vc); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return nil
}

func (s *RegistrationService) reindex(ctx context.Context, a *entity.Account) {
	indexAccount(ctx, s.opts.Index, s.logger, a)
}

// findAccount returns nil, nil for an unknown email.
func findAccount(ctx context.Context, accounts repo.AccountRepository, email string) (*entity.Account, error) {
	a, err := accounts.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// indexAccount mirrors a into the search index; failures are logged, not returned.
func indexAccount(ctx context.Context, index repo.AccountIndex, logger *logrus.Logger, a *entity.Account) {
	if index == nil {
		return
	}
	if err := index.Index(ctx, a); err != nil {
		logger.WithError(err).WithField("account_id", a.ID).Warn("es index failed")
	}
}
