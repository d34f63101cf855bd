package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the service.
const (
	SubjectSignedIn            = "tailor.session.signed_in"
	SubjectSignedOut           = "tailor.session.signed_out"
	SubjectOnboardingCompleted = "tailor.onboarding.completed"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	Subject    string    `json:"subject"`
	UID        string    `json:"uid"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers domain events to other services.
type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
	Close() error
}

// NATS publishes envelopes as core NATS messages.
type NATS struct {
	conn *nats.Conn
	log  *zap.Logger
}

// ConnectNATS dials url. The connection reconnects on its own for the life of the process.
func ConnectNATS(url string, log *zap.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("tailor-connect"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	log.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return &NATS{conn: conn, log: log}, nil
}

func (n *NATS) Publish(_ context.Context, e Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", e.Subject, err)
	}
	if err := n.conn.Publish(e.Subject, data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Subject, err)
	}
	return nil
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Envelope) error { return nil }
func (Noop) Close() error                            { return nil }
