package impl

import "errors"

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrTokenKind     = errors.New("unexpected token kind")
)
