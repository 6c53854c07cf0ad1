package impl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"
)

const verificationSubject = "Email Verification"

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // also the From address
	Password string
}

// VerificationLink is where a recipient confirms their address.
func VerificationLink(frontendURL, token string) string {
	return frontendURL + "/auth/verify-email?token=" + url.QueryEscape(token)
}

func verificationBody(link string) string {
	return fmt.Sprintf(`<p>Click <a href="%s">here</a> to verify your email.</p>`, link)
}

type SMTPEmailService struct {
	cfg         SMTPConfig
	frontendURL string
}

func NewSMTPEmailService(cfg SMTPConfig, frontendURL string) *SMTPEmailService {
	return &SMTPEmailService{cfg: cfg, frontendURL: frontendURL}
}

// SendVerification dials, authenticates with STARTTLS and sends one message.
// A fresh client is created per call.
func (s *SMTPEmailService) SendVerification(ctx context.Context, to string, token string) error {
	errb := oops.In("mail").Code("VERIFICATION_SEND_FAILED").With("smtp_host", s.cfg.Host)

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.Username); err != nil {
		return errb.Wrapf(err, "set from")
	}
	if err := msg.To(to); err != nil {
		return errb.Wrapf(err, "set to")
	}
	msg.Subject(verificationSubject)
	msg.SetBodyString(mail.TypeTextHTML, verificationBody(VerificationLink(s.frontendURL, token)))

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errb.Wrapf(err, "create smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errb.Wrapf(err, "send")
	}
	return nil
}

// ConsoleEmailService logs the verification link instead of mailing it.
// Used when no SMTP credentials are configured.
type ConsoleEmailService struct {
	logger      *slog.Logger
	frontendURL string
}

func NewConsoleEmailService(logger *slog.Logger, frontendURL string) *ConsoleEmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleEmailService{logger: logger, frontendURL: frontendURL}
}

func (c *ConsoleEmailService) SendVerification(ctx context.Context, to string, token string) error {
	c.logger.InfoContext(ctx, "verification email (console)",
		"to", to,
		"subject", verificationSubject,
		"link", VerificationLink(c.frontendURL, token),
	)
	return nil
}
