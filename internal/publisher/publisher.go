// Package publisher announces finished pipeline runs on NATS.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"taxipulse/internal/config"
	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
	"taxipulse/pkg/contracts/events"
)

// RunPublisher announces finished runs
type RunPublisher interface {
	PublishRun(ctx context.Context, summary domain.RunSummary) error
	Close()
}

// conn is the part of *nats.Conn used here
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher publishes run envelopes on NATS
type NATSPublisher struct {
	nc     conn
	logger *slog.Logger
}

// New returns a NATS publisher, or a no-op one when no URL is configured
func New(cfg config.EventsConfig, logger *slog.Logger) (RunPublisher, error) {
	if cfg.NATSURL == "" {
		infrastructure.WithComponent(logger, "publisher").Info("Run events disabled, no NATS URL configured")
		return Noop{}, nil
	}
	return NewNATSPublisher(cfg, logger)
}

// NewNATSPublisher connects to cfg.NATSURL
func NewNATSPublisher(cfg config.EventsConfig, logger *slog.Logger) (*NATSPublisher, error) {
	logger = infrastructure.WithComponent(logger, "publisher")

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.ClientName),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Debug("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}

	logger.Info("Connected to NATS", slog.String("url", nc.ConnectedUrl()))
	return newNATSPublisher(nc, logger), nil
}

func newNATSPublisher(nc conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, logger: infrastructure.WithComponent(logger, "publisher")}
}

// PublishRun publishes the envelope of summary on its status subject
func (p *NATSPublisher) PublishRun(ctx context.Context, summary domain.RunSummary) error {
	env, err := events.NewRunEnvelope(summary, infrastructure.TraceID(ctx))
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := p.nc.Publish(env.Subject, data); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish run",
			slog.String("subject", env.Subject),
			slog.String("run_id", summary.RunID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to publish on %s: %w", env.Subject, err)
	}

	p.logger.InfoContext(ctx, "Run published",
		slog.String("subject", env.Subject),
		slog.String("run_id", summary.RunID),
		slog.Int("bytes", len(data)))
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", slog.String("error", err.Error()))
	}
	p.nc.Close()
}

// Noop drops every run
type Noop struct{}

// PublishRun does nothing
func (Noop) PublishRun(context.Context, domain.RunSummary) error { return nil }

// Close does nothing
func (Noop) Close() {}
