package mailer

import (
	"context"
	"log/slog"
)

// DevMailer logs emails instead of sending them. Used in development when
// no SMTP host is configured, so the verification and reset links are
// visible in the server output.
type DevMailer struct{}

// NewDevMailer creates a log-only mailer.
func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

// SendVerification logs the verification link.
func (d *DevMailer) SendVerification(_ context.Context, to, name, link string) error {
	slog.Info("[dev mail] verification email",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("link", link),
	)
	return nil
}

// SendPasswordReset logs the reset link.
func (d *DevMailer) SendPasswordReset(_ context.Context, to, link string) error {
	slog.Info("[dev mail] password reset email",
		slog.String("to", to),
		slog.String("link", link),
	)
	return nil
}
