// Package transport defines the abstract mail delivery channel used by the
// dispatcher and provides SMTP and AWS SES implementations.
package transport

import (
	"context"
	"errors"

	"github.com/warroomhq/warroom/internal/domain"
)

// MailTransport is the delivery contract the dispatcher depends on. Send is
// synchronous: it either succeeds or returns a descriptive error. The
// returned error text is recorded verbatim in the outcome log, so
// implementations should surface the underlying provider message untouched.
//
// Implementations may hold a long-lived connection across calls or open one
// per call; callers never assume connection state.
type MailTransport interface {
	Send(ctx context.Context, address, subject, body string, contentType domain.ContentType) error
}

// Verifier is implemented by transports that can check usability up front
// (e.g. an SMTP transport authenticating before any recipient is attempted).
// The dispatcher treats a Verify failure as fatal: the run aborts with zero
// outcomes recorded.
type Verifier interface {
	Verify(ctx context.Context) error
}

// ErrNotConfigured is returned by transports constructed without the
// credentials they need.
var ErrNotConfigured = errors.New("transport not configured")
