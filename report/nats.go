package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject carries per-file reports; summaries go to DefaultSubject + ".summary".
const DefaultSubject = "memberorder.violations"

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials a NATS server for report publishing.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("memberorder"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSPublisher publishes reports as JSON messages.
type NATSPublisher struct {
	conn    Publisher
	subject string
}

// NewNATSPublisher creates a publisher. An empty subject selects DefaultSubject.
func NewNATSPublisher(conn Publisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Subject returns the per-file report subject.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

func (p *NATSPublisher) Report(ctx context.Context, r FileReport) error {
	return p.publish(ctx, p.subject, r)
}

func (p *NATSPublisher) Summary(ctx context.Context, s Summary) error {
	return p.publish(ctx, p.subject+".summary", s)
}

// NATS Publish does not take a context, so cancellation is checked up front.
func (p *NATSPublisher) publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}
