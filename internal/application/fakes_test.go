package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/infrastructure/lock"
	"github.com/oksasatya/go-event-api/internal/infrastructure/memory"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type recordingIndex struct {
	mu      sync.Mutex
	indexed []entity.Account
	results []entity.Account
}

func (x *recordingIndex) Index(_ context.Context, a *entity.Account) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, *a)
	return nil
}

func (x *recordingIndex) Search(_ context.Context, _ string, _ int) ([]entity.Account, error) {
	return x.results, nil
}

type recordingUploader struct {
	path, contentType string
	data              []byte
}

func (u *recordingUploader) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.path, u.contentType, u.data = objectPath, contentType, b
	return "https://cdn.test/" + objectPath, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequentialCodes yields 1000, 1001, ... so every issued code differs.
func sequentialCodes() func() (string, error) {
	var mu sync.Mutex
	n := 999
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%d", n), nil
	}
}

type harness struct {
	accounts *memory.AccountRepository
	codes    *memory.VerificationCodeRepository
	mailer   *recordingMailer
	index    *recordingIndex
	clock    *clock
	jwt      *helpers.JWTManager
	reg      *RegistrationService
	auth     *AuthService
}

func newHarness(t *testing.T, opts RegistrationOptions) *harness {
	t.Helper()
	h := &harness{
		accounts: memory.NewAccountRepository(),
		codes:    memory.NewVerificationCodeRepository(),
		mailer:   &recordingMailer{},
		index:    &recordingIndex{},
		clock:    &clock{now: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)},
	}
	jwt, err := helpers.NewJWTManager(bytes.Repeat([]byte("k"), helpers.MinSigningKeyBytes), "event-api", 24*time.Hour, helpers.WithClock(h.clock.Now))
	require.NoError(t, err)
	h.jwt = jwt

	locker := lock.NewLocalLocker()
	hasher := helpers.NewBcryptHasher(4)
	logger := helpers.NewNopLogger()

	opts.Clock = h.clock.Now
	if opts.CodeGenerator == nil {
		opts.CodeGenerator = sequentialCodes()
	}
	opts.Index = h.index
	h.reg = NewRegistrationService(h.accounts, h.codes, h.mailer, hasher, locker, logger, opts)
	h.auth = NewAuthService(h.accounts, hasher, jwt, locker, nil, h.index, logger)
	return h
}

func (h *harness) currentCode(t *testing.T, email string) *entity.VerificationCode {
	t.Helper()
	a, err := h.accounts.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	vc, err := h.codes.GetByAccount(context.Background(), a.ID)
	require.NoError(t, err)
	return vc
}

func (h *harness) account(t *testing.T, email string) *entity.Account {
	t.Helper()
	a, err := h.accounts.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return a
}
