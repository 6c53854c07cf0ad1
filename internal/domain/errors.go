package domain

import (
	"errors"
	"strings"
)

var (
	ErrRequired              = errors.New("required field missing")
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrDisposableEmail       = errors.New("disposable email rejected")
	ErrWeakPassword          = errors.New("weak password")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
)

// RequiredError lists the input fields that were absent or empty.
type RequiredError struct {
	Fields []string
}

func (e *RequiredError) Error() string {
	return "required: " + strings.Join(e.Fields, ", ")
}

func (e *RequiredError) Is(target error) bool { return target == ErrRequired }

// WeakPasswordError lists every password rule the candidate failed.
type WeakPasswordError struct {
	Unmet []string
}

func (e *WeakPasswordError) Error() string {
	return "Password must " + strings.Join(e.Unmet, ", ") + "."
}

func (e *WeakPasswordError) Is(target error) bool { return target == ErrWeakPassword }
