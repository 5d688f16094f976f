package email

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"carematch/internal/config"
)

// Service handles sending email notifications.
type Service struct {
	cfg     *config.Config
	enabled bool
	pending sync.WaitGroup
}

// NewService creates a new email service.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		cfg:     cfg,
		enabled: cfg.IsEmailEnabled(),
	}

	if s.enabled {
		slog.Info("email notifications enabled", "host", cfg.SMTPHost, "port", cfg.SMTPPort, "tls", cfg.SMTPTLS)
	} else {
		slog.Info("email notifications disabled, set SMTP_HOST and SMTP_FROM to enable")
	}

	return s
}

// IsEnabled returns true if email is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// headerValue strips line breaks so values cannot inject extra headers.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}

// buildMessage renders a multipart/alternative MIME message.
func (s *Service) buildMessage(to []string, subject, htmlBody, textBody string) string {
	from := s.cfg.SMTPFrom
	if s.cfg.SMTPFromName != "" {
		from = fmt.Sprintf("%s <%s>", headerValue(s.cfg.SMTPFromName), s.cfg.SMTPFrom)
	}
	boundary := "carematch-" + uuid.NewString()

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", headerValue(strings.Join(to, ", ")))
	fmt.Fprintf(&msg, "Subject: %s\r\n", headerValue(subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	for _, part := range []struct{ mime, body string }{
		{"text/plain", textBody},
		{"text/html", htmlBody},
	} {
		if part.body == "" {
			continue
		}
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", part.mime)
		msg.WriteString(part.body)
		msg.WriteString("\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.String()
}

// Send delivers an email synchronously. It is a no-op when email is
// disabled or there are no recipients.
func (s *Service) Send(to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}

	msg := s.buildMessage(to, subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	switch s.cfg.SMTPTLS {
	case "tls":
		conn, err := tls.Dial("tcp", addr, s.tlsConfig())
		if err != nil {
			return fmt.Errorf("TLS dial failed: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("SMTP client failed: %w", err)
		}
		return s.deliver(client, auth, to, msg)
	case "starttls":
		client, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP dial failed: %w", err)
		}
		if err := client.StartTLS(s.tlsConfig()); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
		return s.deliver(client, auth, to, msg)
	default: // "none"
		return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, to, []byte(msg))
	}
}

func (s *Service) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
}

// deliver runs the SMTP transaction on an established client and closes it.
func (s *Service) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}

	return client.Quit()
}

// SendAsync sends an email in the background (fire and forget with logging).
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Send(to, subject, htmlBody, textBody); err != nil {
			slog.Error("failed to send email", "to", to, "subject", subject, "error", err)
		} else {
			slog.Info("email sent", "to", to, "subject", subject)
		}
	}()
}

// Wait blocks until every SendAsync call has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}
