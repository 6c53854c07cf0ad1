package dto

type CheckEmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}
