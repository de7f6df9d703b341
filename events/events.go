// Package events publishes run lifecycle events over NATS core subjects.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// RunEvent announces a state change of one automation run.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e RunEvent) valid() bool { return e.RunID != "" && e.Status != "" }

// Publisher emits run events. Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(ctx context.Context, evt RunEvent) error
	Close()
}

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL     string
	Subject string
}

// NATSPublisher pushes run events onto a NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS with unbounded reconnects so a broker
// restart does not kill long-running services.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("reschedule-events"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "reschedule.runs"
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, evt RunEvent) error {
	if !evt.valid() {
		return fmt.Errorf("invalid run event: missing run id or status")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, RunEvent) error { return nil }
func (NopPublisher) Close()                                  {}
