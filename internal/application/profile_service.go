package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	repo "github.com/oksasatya/go-event-api/internal/domain/repository"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

// ProfileService serves account summaries, profile images and admin search.
// uploader and index may be nil when GCS or Elasticsearch are not configured.
type ProfileService struct {
	accounts repo.AccountRepository
	locker   repo.Locker
	uploader repo.ObjectUploader
	index    repo.AccountIndex
	logger   *logrus.Logger
}

func NewProfileService(accounts repo.AccountRepository, locker repo.Locker, uploader repo.ObjectUploader, index repo.AccountIndex, logger *logrus.Logger) *ProfileService {
	return &ProfileService{accounts: accounts, locker: locker, uploader: uploader, index: index, logger: logger}
}

func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// UploadProfileImage stores r as the account's profile image and returns its URL.
func (s *ProfileService) UploadProfileImage(ctx context.Context, accountID, contentType string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	a, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return "", err
	}
	objectPath, err := helpers.ProfileImagePath(a.ID, contentType)
	if err != nil {
		return "", err
	}
	url, err := s.uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload profile image: %w", err)
	}

	err = s.locker.WithLock(ctx, helpers.KeyRegistrationLock(a.Email), func(ctx context.Context) error {
		cur, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		cur.ProfileImageURL = url
		if err := s.accounts.Update(ctx, cur); err != nil {
			return fmt.Errorf("store profile image: %w", err)
		}
		indexAccount(ctx, s.index, s.logger, cur)
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// SearchAccounts queries the account index.
func (s *ProfileService) SearchAccounts(ctx context.Context, q string, size int) ([]entity.Account, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	return s.index.Search(ctx, q, size)
}
