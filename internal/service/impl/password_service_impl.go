package impl

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches what existing account hashes were written with.
const DefaultBcryptCost = 10

type PasswordServiceImpl struct {
	cost int
}

func NewPasswordServiceBcrypt(cost int) *PasswordServiceImpl {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordServiceImpl{cost: cost}
}

func (p *PasswordServiceImpl) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (p *PasswordServiceImpl) Compare(password, hash string) (rehashNeeded bool, ok bool) {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, false
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return err == nil && cost != p.cost, true
}
