package impl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/jwtsigner"
	"github.com/storifal/storifal/internal/store"
	"github.com/storifal/storifal/internal/store/storetest"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type sentMail struct {
	to    string
	token string
}

// recordingNotifier captures dispatches synchronously.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) Dispatch(_ context.Context, to string, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, token: token})
}

func (n *recordingNotifier) all() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type stubEmailService struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	sent  []sentMail
	ctxs  []error
}

func (s *stubEmailService) SendVerification(ctx context.Context, to string, token string) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, token: token})
	s.ctxs = append(s.ctxs, ctx.Err())
	return s.err
}

// duplicateOnCreate simulates losing a registration race: the existence check
// passes but the insert hits the unique index.
type duplicateOnCreate struct {
	*store.UserStore
}

func (duplicateOnCreate) Create(context.Context, *domain.User) error {
	return store.ErrDuplicate
}

type failingUsers struct {
	*store.UserStore
	err error
}

func (f failingUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

func (f failingUsers) ExistsByEmail(context.Context, string) (bool, error) {
	return false, f.err
}

var errBoom = errors.New("boom")

type authFixture struct {
	st        *store.Store
	svc       *AuthServiceImpl
	tokens    *TokenServiceImpl
	notifier  *recordingNotifier
	passwords *PasswordServiceImpl
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	st := storetest.NewSQLite(t)
	signer, err := jwtsigner.NewHS256("test-secret", "storifal-test")
	require.NoError(t, err)

	tokens := NewTokenServiceHS256(TokenConfig{VerificationTTL: 30 * time.Minute, AccessTTL: 7 * 24 * time.Hour}, signer)
	passwords := NewPasswordServiceBcrypt(bcrypt.MinCost)
	notifier := &recordingNotifier{}

	svc := NewAuthServiceImpl(st, passwords, tokens, notifier, WithLogger(discardLogger))
	return &authFixture{st: st, svc: svc, tokens: tokens, notifier: notifier, passwords: passwords}
}
