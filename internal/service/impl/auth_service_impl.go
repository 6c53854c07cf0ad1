package impl

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
	"github.com/storifal/storifal/internal/observability/logging"
	"github.com/storifal/storifal/internal/observability/metrics"
	"github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/service"
	"github.com/storifal/storifal/internal/store"
)

const (
	msgVerificationSent = "Verification link sent to your email. Please verify your account."
	msgLoginSuccessful  = "Login successful."
)

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, usr *domain.User) error
	MarkVerified(ctx context.Context, id domain.UserID) error
}

type AuthServiceImpl struct {
	Users           userStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Notifier        service.Notifier
	IsDisposable    DisposableChecker
	Logger          *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthServiceImpl)

func WithDisposableChecker(c DisposableChecker) AuthOption {
	return func(a *AuthServiceImpl) { a.IsDisposable = c }
}

func WithLogger(l *slog.Logger) AuthOption {
	return func(a *AuthServiceImpl) { a.Logger = l }
}

func NewAuthServiceImpl(st *store.Store, passwords service.PasswordService, tokens service.TokenService, notifier service.Notifier, opts ...AuthOption) *AuthServiceImpl {
	a := &AuthServiceImpl{
		Users:           st.Users(),
		PasswordService: passwords,
		TService:        tokens,
		Notifier:        notifier,
		IsDisposable:    NewDisposableChecker(),
		Logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error) {
	result := "failure"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()
	errb := oops.In("auth").With("operation", "register")

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	// 1) input checks, in the order clients are told about them
	if err := checkRequired(r); err != nil {
		result = "invalid"
		return nil, err
	}
	if !validEmail(r.Email) {
		result = "invalid"
		return nil, domain.ErrInvalidEmail
	}
	if a.IsDisposable != nil && a.IsDisposable(r.Email) {
		result = "invalid"
		return nil, domain.ErrDisposableEmail
	}
	if err := CheckPasswordStrength(r.Password); err != nil {
		result = "invalid"
		return nil, err
	}

	// 2) conflict check
	exists, err := a.Users.ExistsByEmail(ctx, r.Email)
	if err != nil {
		return nil, errb.Code("USER_LOOKUP_FAILED").Wrap(err)
	}
	if exists {
		result = "conflict"
		return nil, domain.ErrEmailAlreadyExists
	}

	// 3) hash + token, then persist
	hash, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		return nil, errb.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	token, err := a.TService.IssueVerification(r.Email)
	if err != nil {
		return nil, errb.Code("TOKEN_ISSUE_FAILED").Wrap(err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:                     uuid.New(),
		Name:                   r.Name,
		Email:                  r.Email,
		PasswordHash:           &hash,
		IsVerified:             false,
		EmailVerificationToken: &token,
		AuthType:               domain.AuthTypeManual,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := a.Users.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration for the same email
		if errors.Is(err, store.ErrDuplicate) {
			result = "conflict"
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, errb.Code("USER_CREATE_FAILED").Wrap(err)
	}

	// 4) mail goes out in the background; its failure never fails registration
	a.Notifier.Dispatch(ctx, u.Email, token)

	result = "success"
	a.Logger.Info("user registered", append(middleware.LogAttrs(ctx), "user_id", u.ID)...)
	return &dto.RegisterResponse{Message: msgVerificationSent, UserID: u.ID.String()}, nil
}

func (a *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	result := "failure"
	defer func() {
		metrics.EmailVerificationsTotal.WithLabelValues(result).Inc()
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		result = "invalid"
		return domain.ErrInvalidOrExpiredToken
	}
	email, err := a.TService.ParseVerification(token)
	if err != nil {
		result = "invalid"
		return domain.ErrInvalidOrExpiredToken
	}

	u, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "not_found"
			return domain.ErrUserNotFound
		}
		return oops.In("auth").Code("USER_LOOKUP_FAILED").With("operation", "verify_email").Wrap(err)
	}
	if u.IsVerified {
		result = "already_verified"
		return domain.ErrAlreadyVerified
	}
	// only the most recently issued token for this user is accepted
	if u.EmailVerificationToken == nil ||
		subtle.ConstantTimeCompare([]byte(*u.EmailVerificationToken), []byte(token)) != 1 {
		result = "invalid"
		return domain.ErrInvalidOrExpiredToken
	}

	if err := a.Users.MarkVerified(ctx, u.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyVerified) {
			result = "already_verified"
			return err
		}
		return oops.In("auth").Code("USER_VERIFY_FAILED").With("operation", "verify_email", "user_id", u.ID).Wrap(err)
	}

	result = "success"
	a.Logger.Info("email verified", append(middleware.LogAttrs(ctx), "user_id", u.ID)...)
	return nil
}

func (a *AuthServiceImpl) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, &domain.RequiredError{Fields: []string{"email"}}
	}
	if !validEmail(email) {
		return false, domain.ErrInvalidEmail
	}
	exists, err := a.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, oops.In("auth").Code("USER_LOOKUP_FAILED").With("operation", "check_email").Wrap(err)
	}
	return exists, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (*dto.LoginResponse, error) {
	result := "failure"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	r.Email = strings.TrimSpace(r.Email)
	if err := checkRequired(r); err != nil {
		result = "invalid"
		return nil, err
	}
	if !validEmail(r.Email) {
		result = "invalid"
		return nil, domain.ErrInvalidEmail
	}

	// 1) load user; unknown addresses still pay for a hash comparison
	u, err := a.Users.GetByEmail(ctx, r.Email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			a.PasswordService.Compare(r.Password, a.dummyPasswordHash())
			result = "bad_credentials"
			return nil, domain.ErrInvalidCredentials
		}
		return nil, oops.In("auth").Code("USER_LOOKUP_FAILED").With("operation", "login").Wrap(err)
	}
	// verification status is not secret, so it is reported before the password check
	if !u.IsVerified {
		result = "unverified"
		return nil, domain.ErrEmailNotVerified
	}
	if !u.HasPassword() {
		a.PasswordService.Compare(r.Password, a.dummyPasswordHash())
		result = "bad_credentials"
		return nil, domain.ErrInvalidCredentials
	}

	// 2) verify password
	rehashNeeded, ok := a.PasswordService.Compare(r.Password, *u.PasswordHash)
	if !ok {
		result = "bad_credentials"
		return nil, domain.ErrInvalidCredentials
	}

	// 3) transparent rehash when the cost policy changed
	if rehashNeeded {
		a.rehash(ctx, u, r.Password)
	}

	// 4) mint bearer token
	tok, err := a.TService.IssueAccess(u)
	if err != nil {
		return nil, oops.In("auth").Code("TOKEN_ISSUE_FAILED").With("operation", "login", "user_id", u.ID).Wrap(err)
	}

	result = "success"
	a.Logger.Info("user logged in", append(middleware.LogAttrs(ctx), "user_id", u.ID)...)
	return &dto.LoginResponse{
		Message: msgLoginSuccessful,
		Token:   tok,
		User:    dto.NewUserSummary(u),
	}, nil
}

func (a *AuthServiceImpl) Me(ctx context.Context, id domain.UserID) (*domain.User, error) {
	u, err := a.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.In("auth").Code("USER_LOOKUP_FAILED").With("operation", "me").Wrap(err)
	}
	return u, nil
}

// rehash is best effort; the login already succeeded.
func (a *AuthServiceImpl) rehash(ctx context.Context, u *domain.User, password string) {
	hash, err := a.PasswordService.Hash(password)
	if err == nil {
		u.PasswordHash = &hash
		u.UpdatedAt = time.Now().UTC()
		err = a.Users.Save(ctx, u)
	}
	if err != nil {
		logging.LogError(a.Logger, "password rehash failed", err, append(middleware.LogAttrs(ctx), "user_id", u.ID)...)
	}
}

func (a *AuthServiceImpl) dummyPasswordHash() string {
	a.dummyOnce.Do(func() {
		h, err := a.PasswordService.Hash(uuid.NewString())
		if err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}
