package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"sprinkler-agent/shared/config"
)

const (
	SubjectReport = "Weather update!"
	SubjectError  = "Weather update - ERROR"

	defaultTimeout = 10 * time.Second
)

// NotificationError reports a failure to deliver an email
type NotificationError struct {
	Recipients []string
	Err        error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("error sending email to %s: %v", strings.Join(e.Recipients, ", "), e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

type Sender struct {
	config    *config.EmailConfig
	timeout   time.Duration
	tlsConfig *tls.Config
	now       func() time.Time
}

// NewSender returns a Sender for the given SMTP settings
func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config:  cfg,
		timeout: defaultTimeout,
		now:     time.Now,
	}
}

// Recipients returns the normalized recipient list
func (s *Sender) Recipients() []string {
	return []string(s.config.ToEmails)
}

// Send delivers a plain-text email to every configured recipient
func (s *Sender) Send(ctx context.Context, subject, body string) error {
	to := s.Recipients()
	if len(to) == 0 {
		return &NotificationError{Err: errors.New("no recipients configured")}
	}

	msg := s.buildMessage(subject, body)
	if err := s.sendViaSMTP(ctx, to, msg); err != nil {
		return &NotificationError{Recipients: to, Err: err}
	}
	return nil
}

func (s *Sender) buildMessage(subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.config.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.Recipients(), ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// sendViaSMTP runs one STARTTLS-encrypted, authenticated SMTP session.
func (s *Sender) sendViaSMTP(ctx context.Context, to []string, msg []byte) error {
	host := s.config.SMTPHost
	addr := net.JoinHostPort(host, strconv.Itoa(s.config.SMTPPort))

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(3 * s.timeout)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return fmt.Errorf("SMTP server %s does not support STARTTLS", addr)
	}
	tlsConfig := s.tlsConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	if err := c.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, host)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := c.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return c.Quit()
}
