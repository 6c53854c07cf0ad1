package service

import (
	"context"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
)

type ContactService interface {
	Submit(ctx context.Context, r dto.ContactRequest) (*domain.Contact, error)
}
