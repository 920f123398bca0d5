package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"gatherly/internal/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Mailer sends reminder email over SMTP. Without SMTP_HOST configured it
// logs the message instead, which keeps dev environments mail-free the way
// the rest of the service expects.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	limiter  *rate.Limiter
	logger   *logrus.Logger
}

// NewMailer builds a Mailer from SMTP_* environment configuration. Sends
// are throttled to one per second so a large due batch cannot hammer the
// relay.
func NewMailer(logger *logrus.Logger) *Mailer {
	host, port, username, password, from := config.SMTPConfig()
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger:   logger,
	}
}

// Send delivers one message. It honors ctx for both the throttle wait and
// the SMTP dial, so a per-send timeout upstream turns a hung relay into a
// delivery failure.
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	if m.host == "" {
		m.logger.WithFields(logrus.Fields{
			"to":      recipient,
			"subject": subject,
			"body":    body,
		}).Info("SMTP not configured, logging email instead")
		return nil
	}

	msg := m.buildMessage(recipient, subject, body)
	return m.deliver(ctx, recipient, msg)
}

func (m *Mailer) buildMessage(recipient, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (m *Mailer) deliver(ctx context.Context, recipient string, msg []byte) error {
	addr := net.JoinHostPort(m.host, m.port)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("SMTP RCPT failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
