// Package nats publishes domain events to NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/rabotim/internal/ports/secondary"
)

// SubjectPrefix is prepended to the event type to form the subject,
// e.g. "rabotim.events.task.completed".
const SubjectPrefix = "rabotim.events."

// Publisher implements secondary.EventPublisher on a NATS connection.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// Connect dials NATS with reconnects enabled.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.Name("rabotim"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", "url", nc.ConnectedUrlRedacted())
	return &Publisher{nc: nc, logger: logger}, nil
}

// Publish sends the event as JSON and flushes so it is on the wire before
// the request that produced it returns.
func (p *Publisher) Publish(ctx context.Context, e secondary.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := SubjectPrefix + e.Type
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush %s: %w", subject, err)
	}

	p.logger.Debug("event published", "subject", subject, "task_id", e.TaskID)
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}

var _ secondary.EventPublisher = (*Publisher)(nil)
