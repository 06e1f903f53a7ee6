// Package mailer sends transactional email (verification links, password
// reset links). Delivery is best-effort: callers dispatch fire-and-forget
// and log failures instead of surfacing them, so a broken mail provider
// never turns a signup into a user-facing error or leaks account existence
// through response differences.
package mailer

import "context"

// Mailer is the outbound email contract consumed by the auth service.
type Mailer interface {
	// SendVerification emails an account-verification link.
	SendVerification(ctx context.Context, to, name, link string) error

	// SendPasswordReset emails a password-reset link.
	SendPasswordReset(ctx context.Context, to, link string) error
}
