package dto

import "github.com/storifal/storifal/internal/domain"

type ContactRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type ContactResponse struct {
	Message string          `json:"message"`
	Contact *domain.Contact `json:"contact"`
}
