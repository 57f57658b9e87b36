// Package dispatch implements the recipient dispatcher: a strictly
// sequential loop that personalizes a message per recipient, attempts
// delivery through a mail transport, classifies each outcome and reports
// progress as it goes.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/personalize"
	"github.com/warroomhq/warroom/internal/pkg/logger"
	"github.com/warroomhq/warroom/internal/transport"
)

// ProgressFunc is invoked exactly once per recipient, after its outcome has
// been recorded. completed counts outcomes recorded so far (including the
// current one), total is the full recipient count.
type ProgressFunc func(completed, total int, current domain.Recipient)

// Options configures a dispatch run.
type Options struct {
	// Delay is the pause between consecutive delivery attempts. It exists
	// to stay under the transport's own abuse detection, not as a backoff:
	// it never varies with outcome. Applied after sent/failed recipients
	// only, and never after the last one.
	Delay time.Duration

	// OnProgress, if set, receives one callback per processed recipient.
	OnProgress ProgressFunc

	// RunID, if set, is used instead of a generated one. Callers that
	// publish progress under the run's key set this up front.
	RunID string
}

// Dispatcher runs dispatch runs against a single transport. One logical
// caller at a time per transport; the loop itself is single-threaded.
type Dispatcher struct {
	transport transport.MailTransport
	opts      Options

	// sleep is swappable so tests can count delay intervals.
	sleep func(time.Duration)
}

// New creates a dispatcher for the given transport.
func New(t transport.MailTransport, opts Options) *Dispatcher {
	return &Dispatcher{
		transport: t,
		opts:      opts,
		sleep:     time.Sleep,
	}
}

// Dispatch delivers the personalized message to each recipient in input
// order and returns the completed run.
//
// The only fatal condition is an unusable transport, detected up front via
// transport.Verifier: then no outcomes are recorded, no progress fires, and
// the error is returned with a nil run. Every per-recipient failure is
// converted into outcome data instead; once the loop starts it always runs
// through the whole list, unless ctx is cancelled, in which case the
// outcomes recorded so far are returned together with the context error.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []domain.Recipient, tmpl domain.MessageTemplate) (*domain.DispatchRun, error) {
	if v, ok := d.transport.(transport.Verifier); ok {
		if err := v.Verify(ctx); err != nil {
			return nil, fmt.Errorf("transport verification: %w", err)
		}
	}

	runID := d.opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	run := &domain.DispatchRun{
		ID:        runID,
		State:     domain.RunRunning,
		StartedAt: time.Now(),
	}

	total := len(recipients)
	for i, r := range recipients {
		if err := ctx.Err(); err != nil {
			run.State = domain.RunCancelled
			run.CompletedAt = time.Now()
			return run, err
		}

		outcome := d.process(ctx, r, tmpl)
		run.Outcomes = append(run.Outcomes, outcome)

		if d.opts.OnProgress != nil {
			d.opts.OnProgress(len(run.Outcomes), total, r)
		}

		// No delay after an invalid classification (nothing was sent) or
		// after the final recipient.
		if outcome.Status != domain.StatusInvalid && i < total-1 && d.opts.Delay > 0 {
			d.sleep(d.opts.Delay)
		}
	}

	run.State = domain.RunCompleted
	run.CompletedAt = time.Now()

	t := run.Tally()
	logger.Info("dispatch run completed",
		"run_id", run.ID, "sent", t.Sent, "failed", t.Failed, "invalid", t.Invalid)
	return run, nil
}

func (d *Dispatcher) process(ctx context.Context, r domain.Recipient, tmpl domain.MessageTemplate) domain.DeliveryOutcome {
	outcome := domain.DeliveryOutcome{
		Recipient: r,
		Timestamp: time.Now(),
	}

	if !personalize.ValidAddress(r.Address) {
		outcome.DisplayName = r.DisplayName
		outcome.Status = domain.StatusInvalid
		outcome.ErrorDetail = "invalid address format"
		return outcome
	}

	name := personalize.ResolveDisplayName(r.DisplayName, r.Address)
	outcome.DisplayName = name

	subject := personalize.Personalize(tmpl.Subject, name, r.Address)
	body := personalize.Personalize(tmpl.Body, name, r.Address)

	if err := d.transport.Send(ctx, r.Address, subject, body, tmpl.ContentType); err != nil {
		outcome.Status = domain.StatusFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	outcome.Status = domain.StatusSent
	return outcome
}
