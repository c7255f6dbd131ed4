package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
)

// Mailer sends account emails. Satisfied by Sender and mocked in tests.
type Mailer interface {
	SendVerificationEmail(to, username, link string) error
	SendPasswordResetEmail(to, username, link string) error
}

// Sender delivers mail over SMTP. With an empty Host it logs the mail
// instead, which keeps local development working without a relay.
type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewSender builds a Sender.
func NewSender(host, port, username, password, from string) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
	}
}

const verificationTemplate = `
<!DOCTYPE html>
<html>
<body>
    <p>Hi {{.Username}},</p>
    <p>Thanks for signing up. Please verify your email address to get started.</p>
    <p><a href="{{.Link}}">Verify Email</a></p>
    <p>If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`

const resetTemplate = `
<!DOCTYPE html>
<html>
<body>
    <p>Hi {{.Username}},</p>
    <p>We received a request to reset your password.</p>
    <p><a href="{{.Link}}">Reset Password</a></p>
    <p>If you didn't request this, you can safely ignore this email.</p>
</body>
</html>
`

// SendVerificationEmail mails the signup verification link.
func (s *Sender) SendVerificationEmail(to, username, link string) error {
	return s.send(to, "Verify your email", verificationTemplate, username, link)
}

// SendPasswordResetEmail mails the password reset link.
func (s *Sender) SendPasswordResetEmail(to, username, link string) error {
	return s.send(to, "Reset your password", resetTemplate, username, link)
}

func (s *Sender) send(to, subject, tmpl, username, link string) error {
	t, err := template.New("mail").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, map[string]string{"Username": username, "Link": link}); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	if s.Host == "" {
		log.Printf("mock email to=%s subject=%q link=%s", to, subject, link)
		return nil
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	return smtp.SendMail(addr, auth, s.From, []string{to}, msg.Bytes())
}
