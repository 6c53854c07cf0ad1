package impl

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/jwtsigner"
	"github.com/storifal/storifal/internal/observability/metrics"
)

const (
	tokenTypeVerification = "email_verification"
	tokenTypeAccess       = "access"
)

type TokenConfig struct {
	VerificationTTL time.Duration // e.g. 30 * time.Minute
	AccessTTL       time.Duration // e.g. 7 * 24h
}

// VerificationClaims binds a token to the address it was mailed to.
type VerificationClaims struct {
	Type  string `json:"typ"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AccessClaims struct {
	Type   string `json:"typ"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type TokenServiceImpl struct {
	cfg    TokenConfig
	signer *jwtsigner.Signer
	now    func() time.Time
}

func NewTokenServiceHS256(cfg TokenConfig, signer *jwtsigner.Signer) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, signer: signer, now: time.Now}
}

func (t *TokenServiceImpl) IssueVerification(email string) (string, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(tokenTypeVerification, result).Inc()
	}()

	claims := VerificationClaims{
		Type:             tokenTypeVerification,
		Email:            email,
		RegisteredClaims: t.signer.Registered(email, t.cfg.VerificationTTL, t.now().UTC()),
	}
	tok, err := t.signer.Sign(claims)
	if err != nil {
		result = "failure"
		return "", err
	}
	return tok, nil
}

func (t *TokenServiceImpl) ParseVerification(token string) (string, error) {
	var claims VerificationClaims
	if err := t.signer.Parse(token, &claims, jwt.WithTimeFunc(t.now)); err != nil {
		return "", err
	}
	if claims.Type != tokenTypeVerification || claims.Email == "" {
		return "", ErrTokenKind
	}
	return claims.Email, nil
}

func (t *TokenServiceImpl) IssueAccess(user *domain.User) (string, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues(tokenTypeAccess, result).Inc()
	}()

	claims := AccessClaims{
		Type:             tokenTypeAccess,
		UserID:           user.ID.String(),
		Email:            user.Email,
		RegisteredClaims: t.signer.Registered(user.ID.String(), t.cfg.AccessTTL, t.now().UTC()),
	}
	tok, err := t.signer.Sign(claims)
	if err != nil {
		result = "failure"
		return "", err
	}
	return tok, nil
}

func (t *TokenServiceImpl) ParseAccess(token string) (*domain.Principal, error) {
	var claims AccessClaims
	if err := t.signer.Parse(token, &claims, jwt.WithTimeFunc(t.now)); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess {
		return nil, ErrTokenKind
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.Join(jwtsigner.ErrInvalidToken, err)
	}
	return &domain.Principal{UserID: id, Email: claims.Email}, nil
}
