package services

import (
	"fmt"
	"strings"
	"time"

	"dial2tech_backend/internal/email"
	"dial2tech_backend/internal/logger"
)

// EmailService wraps the email provider for the application's outbound
// mail: lifecycle dispatches from the outbox and account emails sent
// inline.
type EmailService struct {
	provider email.Provider
	baseURL  string
}

func NewEmailService(provider email.Provider, baseURL string) *EmailService {
	return &EmailService{provider: provider, baseURL: baseURL}
}

// Send delivers a prepared subject and body to a single recipient. The
// dispatch worker uses this for outbox rows; templated bodies carry markup
// and go out as HTML.
func (s *EmailService) Send(to, subject, body string) error {
	msg := &email.Email{
		To:      []string{to},
		Subject: subject,
	}
	if strings.Contains(body, "<p>") {
		msg.HTMLBody = body
	} else {
		msg.Body = body
	}
	return s.provider.Send(msg)
}

// SendPasswordResetEmail sends the templated reset link.
func (s *EmailService) SendPasswordResetEmail(to, name, token string) error {
	data := email.TemplateData{
		"Name":      name,
		"ResetURL":  fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token),
		"ExpiresIn": ttlText(resetTokenTTL),
	}
	err := s.provider.SendWithTemplate("password_reset", data, &email.Email{
		To:      []string{to},
		Subject: "Reset your Dial2Tech password",
	})
	if err != nil {
		logger.WithError(err).Error("failed to send password reset email", "to", to)
	}
	return err
}

func (s *EmailService) Close() error {
	return s.provider.Close()
}

func ttlText(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
