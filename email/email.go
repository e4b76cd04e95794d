package email

import (
	"fmt"
	"net/smtp"
	"os"
)

// Mailer sends the outbound account emails. Handlers depend on the
// interface so tests can substitute a recorder.
type Mailer interface {
	SendPasswordResetEmail(to, token string) error
	SendPasswordChangedEmail(to string) error
}

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

func (e *EmailService) SendPasswordResetEmail(to, token string) error {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}

	resetLink := fmt.Sprintf("%s/reset/%s", domain, token)

	subject := "YelpCamp Password Reset"
	body := fmt.Sprintf(`You are receiving this because you (or someone else) have requested the reset of the password.

Please click on the following link, or paste this into your browser to complete the process:

%s

If you did not request this, please ignore this email and your password will remain unchanged.
`, resetLink)

	return e.send(to, subject, body)
}

func (e *EmailService) SendPasswordChangedEmail(to string) error {
	subject := "Your password has been changed"
	body := fmt.Sprintf(`Hello,

This is a confirmation that the password for your account %s has been updated.
`, to)

	return e.send(to, subject, body)
}

func (e *EmailService) send(to, subject, body string) error {
	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, to, subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
