package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Notifier sends the transactional emails of the auth flows.
type Notifier interface {
	SendVerification(ctx context.Context, email, code string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordResetRequest(ctx context.Context, email, resetURL string) error
	SendPasswordResetSuccess(ctx context.Context, email string) error
}

type EmailSettings struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
	CompanyName  string
	// DryRun logs messages instead of dialing SMTP.
	DryRun bool
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender  mailSender
	from    string
	company string
	dryRun  bool
	log     *slog.Logger
}

func NewEmailService(s EmailSettings, log *slog.Logger) Notifier {
	dialer := gomail.NewDialer(s.SMTPHost, s.SMTPPort, s.SMTPUser, s.SMTPPassword)
	return newEmailService(dialer, s, log)
}

func newEmailService(sender mailSender, s EmailSettings, log *slog.Logger) *emailService {
	if log == nil {
		log = slog.Default()
	}
	from := s.FromEmail
	if s.FromName != "" {
		from = gomail.NewMessage().FormatAddress(s.FromEmail, s.FromName)
	}
	return &emailService{
		sender:  sender,
		from:    from,
		company: s.CompanyName,
		dryRun:  s.DryRun || s.SMTPHost == "",
		log:     log,
	}
}

func (s *emailService) SendVerification(ctx context.Context, email, code string) error {
	body, err := render(verificationTpl, map[string]string{"Code": code})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	if err := s.send(ctx, email, "Verify your email", "Email Verification", body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcome(ctx context.Context, email, name string) error {
	body, err := render(welcomeTpl, map[string]string{"Name": name, "Company": s.company})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	subject := "Welcome!"
	if s.company != "" {
		subject = fmt.Sprintf("Welcome to %s!", s.company)
	}
	if err := s.send(ctx, email, subject, "Welcome", body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetRequest(ctx context.Context, email, resetURL string) error {
	body, err := render(resetRequestTpl, map[string]string{"URL": resetURL})
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}
	if err := s.send(ctx, email, "Reset your password", "Password Reset", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetSuccess(ctx context.Context, email string) error {
	body, err := render(resetSuccessTpl, nil)
	if err != nil {
		return fmt.Errorf("failed to render password reset success email: %w", err)
	}
	if err := s.send(ctx, email, "Password reset successful", "Password Reset", body); err != nil {
		return fmt.Errorf("failed to send password reset success email: %w", err)
	}
	return nil
}

func (s *emailService) send(ctx context.Context, to, subject, category, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("X-MT-Category", category)
	m.SetBody("text/html", body)

	if s.dryRun {
		s.log.InfoContext(ctx, "email dry-run", "to", to, "subject", subject, "category", category)
		return nil
	}
	return s.sender.DialAndSend(m)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
