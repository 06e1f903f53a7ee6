package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/ouisite/ouisite/internal/config"
)

// dialTimeout bounds the TCP connect to the SMTP host so a dead provider
// can't hold a goroutine open indefinitely.
const dialTimeout = 10 * time.Second

// SMTPMailer sends mail through a configured SMTP relay. Supports STARTTLS
// (port 587 typical), implicit SSL (port 465), and unencrypted for local
// test relays like mailpit.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer creates a mailer for the given SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerification emails an account-verification link.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, name, link string) error {
	subject := "Confirm your OuiSite account"
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Welcome to OuiSite! Please confirm your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link is valid for 24 hours. If you didn't create an account, you can ignore this email.\n",
		name, link)
	return m.send(ctx, to, subject, body)
}

// SendPasswordReset emails a password-reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	subject := "Reset your OuiSite password"
	body := fmt.Sprintf(
		"Hello,\n\n"+
			"A password reset was requested for your OuiSite account. Open the link below to choose a new password:\n\n"+
			"%s\n\n"+
			"The link is valid for 1 hour. If you didn't request a reset, you can ignore this email.\n",
		link)
	return m.send(ctx, to, subject, body)
}

// send builds an RFC 2822 message and delivers it using the configured
// encryption mode.
func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.FromAddress}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	switch m.cfg.Encryption {
	case "ssl":
		return m.sendSSL(addr, from.Address, to, msg.String())
	case "none":
		return m.sendPlain(addr, from.Address, to, msg.String())
	default: // "starttls"
		return m.sendStartTLS(addr, from.Address, to, msg.String())
	}
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (m *SMTPMailer) sendStartTLS(addr, from, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	return m.deliver(client, from, to, msg)
}

// sendSSL sends email over an implicit TLS connection (port 465 typical).
func (m *SMTPMailer) sendSSL(addr, from, to, msg string) error {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("connecting to %s over TLS: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	return m.deliver(client, from, to, msg)
}

// sendPlain sends email without encryption. Local test relays only.
func (m *SMTPMailer) sendPlain(addr, from, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	return m.deliver(client, from, to, msg)
}

// deliver runs the AUTH/MAIL/RCPT/DATA sequence on an established client.
func (m *SMTPMailer) deliver(client *gosmtp.Client, from, to, msg string) error {
	if m.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data writer: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data writer: %w", err)
	}

	return client.Quit()
}
