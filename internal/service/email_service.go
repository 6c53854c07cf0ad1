package service

import "context"

type EmailService interface {
	SendVerification(ctx context.Context, to string, token string) error
}

// Notifier hands verification mail off to the background. Delivery failures
// are logged and counted, never returned.
type Notifier interface {
	Dispatch(ctx context.Context, to string, token string)
}
