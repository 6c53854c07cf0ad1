package service

import "github.com/storifal/storifal/internal/domain"

type TokenService interface {
	IssueVerification(email string) (string, error)
	// ParseVerification returns the email a verification token was issued for.
	ParseVerification(token string) (string, error)
	IssueAccess(user *domain.User) (string, error)
	ParseAccess(token string) (*domain.Principal, error)
}
