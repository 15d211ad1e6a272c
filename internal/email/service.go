package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/mail"
	"net/smtp"

	"github.com/redmonkez12/meditrack-api/internal/config"
	"github.com/redmonkez12/meditrack-api/internal/logging"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0F766E; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
        .button { display: inline-block; background-color: #0F766E; color: white !important; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome to MediTrack</h1>
    </div>
    <div class="content">
        <h2>Hi {{.Name}},</h2>
        <p>Your account has been created. You can now keep your medical profile, emergency contact and health records in one place.</p>
        <a href="{{.LoginLink}}" class="button" style="color: white !important;">Open MediTrack</a>
        <p>If you didn't create this account, please contact support.</p>
    </div>
    <div class="footer">
        <p>&copy; 2026 MediTrack. All rights reserved.</p>
    </div>
</body>
</html>
`))

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service sends transactional email over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	send         SendFunc
}

func NewService(cfg config.EmailConfig) *Service {
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		frontendURL:  cfg.FrontendURL,
		send:         smtp.SendMail,
	}
}

// WithSendFunc replaces the SMTP transport. Used by tests.
func (s *Service) WithSendFunc(send SendFunc) *Service {
	s.send = send
	return s
}

// SendWelcomeEmail greets a newly registered user. It is called from a
// goroutine after registration has already succeeded.
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	logger := logging.FromContext(ctx)

	body, err := renderWelcome(name, s.frontendURL+"/login")
	if err != nil {
		logger.Error("failed to render welcome email", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Welcome to MediTrack", body); err != nil {
		logger.Error("failed to send welcome email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("welcome email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	// the envelope sender must be a bare address
	envelopeFrom := s.fromEmail
	if addr, err := mail.ParseAddress(s.fromEmail); err == nil {
		envelopeFrom = addr.Address
	}

	return s.send(net.JoinHostPort(s.smtpHost, s.smtpPort), auth, envelopeFrom, []string{to}, msg)
}

func renderWelcome(name, loginLink string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name      string
		LoginLink string
	}{
		Name:      name,
		LoginLink: loginLink,
	}

	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
