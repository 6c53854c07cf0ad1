package impl

import (
	"strings"

	"github.com/storifal/storifal/internal/domain"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	passwordSymbols  = "@$!%*?&"
)

// CheckPasswordStrength returns a *domain.WeakPasswordError listing every
// unmet rule, or nil.
func CheckPasswordStrength(pw string) error {
	var lower, upper, digit, symbol, other bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			other = true
		}
	}

	var unmet []string
	if len([]rune(pw)) < minPasswordLength {
		unmet = append(unmet, "be at least 6 characters long")
	}
	if len(pw) > maxPasswordBytes {
		unmet = append(unmet, "be at most 72 bytes long")
	}
	if !lower {
		unmet = append(unmet, "contain a lowercase letter")
	}
	if !upper {
		unmet = append(unmet, "contain an uppercase letter")
	}
	if !digit {
		unmet = append(unmet, "contain a number")
	}
	if !symbol {
		unmet = append(unmet, "contain a special character ("+passwordSymbols+")")
	}
	if other {
		unmet = append(unmet, "contain only letters, numbers and "+passwordSymbols)
	}

	if len(unmet) == 0 {
		return nil
	}
	return &domain.WeakPasswordError{Unmet: unmet}
}
