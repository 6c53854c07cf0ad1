package dto

import "github.com/storifal/storifal/internal/domain"

// UserSummary is the public view of a user; it never carries credentials.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUserSummary(u *domain.User) UserSummary {
	return UserSummary{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

type UserProfile struct {
	UserSummary
	IsVerified bool            `json:"isVerified"`
	AuthType   domain.AuthType `json:"authType"`
}

type MeResponse struct {
	User UserProfile `json:"user"`
}
