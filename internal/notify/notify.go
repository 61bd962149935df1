// Package notify publishes run events to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "docweave.runs"

// StageSummary is the per-stage part of an Event.
type StageSummary struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Processed  int     `json:"processed"`
	Failed     int     `json:"failed"`
	DurationMS float64 `json:"duration_ms"`
}

// Event describes a finished run.
type Event struct {
	Type       string         `json:"type"`
	RunID      string         `json:"run_id"`
	Outcome    string         `json:"outcome"`
	Started    time.Time      `json:"started"`
	DurationMS float64        `json:"duration_ms"`
	Commit     string         `json:"commit,omitempty"`
	Documents  int            `json:"documents"`
	Modules    int            `json:"modules"`
	Warnings   int            `json:"warnings"`
	Stages     []StageSummary `json:"stages"`
	Error      string         `json:"error,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. Extra options are appended to the defaults.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	base := []nats.Option{nats.Name("docweave"), nats.Timeout(5 * time.Second)}
	conn, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).Build()
	}
	slog.Debug("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

// Publish encodes ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish event").
			WithContext("subject", p.subject).Build()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to flush event").
			WithContext("subject", p.subject).Build()
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), slog.String("type", ev.Type))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
