package service

import (
	"context"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, r dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, id domain.UserID) (*domain.User, error)
}
