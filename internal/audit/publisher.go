package audit

import (
	"context"
	"errors"
	"time"
)

// Sink receives audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps audit events and fans them out to every configured sink.
// It is append-only; a failing sink does not stop the remaining ones.
type Publisher struct {
	sinks []Sink
	now   func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock overrides the timestamp source for events emitted without one.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(sinks []Sink, opts ...Option) *Publisher {
	p := &Publisher{sinks: sinks, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = p.now()
	}
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, base); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
