package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/rabotim/internal/ports/secondary"
)

// NotificationTTL bounds how long a delivered notification key is
// remembered by the ledger.
const NotificationTTL = 30 * 24 * time.Hour

// Dispatcher sends notifications and publishes domain events off the
// request path. Failures are logged and never returned. A nil *Dispatcher
// drops everything.
type Dispatcher struct {
	notifier  secondary.Notifier
	ledger    secondary.NotificationLedger
	profiles  secondary.ProfileRepository
	publisher secondary.EventPublisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. ledger and publisher may be nil.
func NewDispatcher(
	notifier secondary.Notifier,
	ledger secondary.NotificationLedger,
	profiles secondary.ProfileRepository,
	publisher secondary.EventPublisher,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifier:  notifier,
		ledger:    ledger,
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify emails userID in the background. key de-duplicates deliveries.
func (d *Dispatcher) Notify(ctx context.Context, userID, key, subject, body string) {
	if d == nil || d.notifier == nil || userID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(ctx, userID, key, subject, body)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, userID, key, subject, body string) {
	logger := d.logger.With("key", key, "user_id", userID)

	profile, err := d.profiles.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("notification skipped: no profile", "error", err)
		return
	}

	if d.ledger != nil {
		first, err := d.ledger.MarkOnce(ctx, key, NotificationTTL)
		if err != nil {
			logger.Warn("notification ledger unavailable, sending anyway", "error", err)
		} else if !first {
			logger.Debug("notification suppressed: already sent")
			return
		}
	}

	err = d.notifier.Notify(ctx, secondary.Notification{
		To:      profile.Email,
		Subject: subject,
		Body:    body,
		Key:     key,
	})
	if err != nil {
		logger.Error("notification failed", "error", err)
		return
	}
	logger.Info("notification sent")
}

// Publish broadcasts e in the background.
func (d *Dispatcher) Publish(ctx context.Context, e secondary.Event) {
	if d == nil || d.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.publisher.Publish(ctx, e); err != nil {
			d.logger.Error("event publish failed", "type", e.Type, "task_id", e.TaskID, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
