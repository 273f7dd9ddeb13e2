package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"studynotes-backend/internal/logger"
)

// PasswordResetMailer delivers password reset links.
type PasswordResetMailer interface {
	SendPasswordResetEmail(to, token string) error
}

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
	log         *logger.Logger
}

func NewEmailService(host, port, user, pass, from, frontendURL string, log *logger.Logger) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Warn("email service running in dev mode, messages are logged instead of sent")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
		log:         log,
	}
}

func (s *EmailService) passwordResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.frontendURL, "/"), token)
}

func (s *EmailService) SendPasswordResetEmail(to, token string) error {
	resetURL := s.passwordResetURL(token)

	subject := "Reset your StudyNotes password"
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; background-color: #f8fafc; margin: 0; padding: 0;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 8px; padding: 32px;">
    <h2 style="margin: 0 0 16px; color: #1e293b;">Password reset</h2>
    <p style="color: #475569; font-size: 14px; line-height: 1.6;">
      Someone asked to reset the password of your StudyNotes account. Use the link below to choose a new one.
    </p>
    <p><a href="%s" style="color: #2563eb; font-weight: 600;">Choose a new password</a></p>
    <p style="color: #94a3b8; font-size: 12px;">
      The link is valid for one hour. If you did not ask for this, ignore this email.
    </p>
  </div>
</body>
</html>`, resetURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.log.Info("dev email", "to", to, "subject", subject, "body", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}
