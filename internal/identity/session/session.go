package session

import (
	"context"

	"padron/internal/identity/history"
	"padron/internal/identity/models"
)

// Consulter performs a registry consultation for a raw identity number.
type Consulter interface {
	Consult(ctx context.Context, rawID, credentialOverride string) (*models.PersonRecord, error)
}

// Session is one caller's view of the lookup subsystem: successful lookups
// are remembered and served from history for the rest of the session.
type Session struct {
	consulter  Consulter
	history    *history.Cache
	credential string
}

// Option configures a Session.
type Option func(*Session)

// WithCredential sets the per-call credential override used for every lookup.
func WithCredential(credential string) Option {
	return func(s *Session) { s.credential = credential }
}

// WithHistory replaces the default unbounded history.
func WithHistory(h *history.Cache) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}

func New(consulter Consulter, opts ...Option) *Session {
	s := &Session{consulter: consulter}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = history.New()
	}
	return s
}

// Result is the outcome of a successful Lookup.
type Result struct {
	Record    models.PersonRecord
	FromCache bool
}

// Lookup serves id from history when present, otherwise consults the registry
// and records the record on success. Failures leave history untouched.
func (s *Session) Lookup(ctx context.Context, id string) (Result, error) {
	if record, ok := s.history.Get(id); ok {
		return Result{Record: record, FromCache: true}, nil
	}
	record, err := s.consulter.Consult(ctx, id, s.credential)
	if err != nil {
		return Result{}, err
	}
	s.history.RecordSuccess(id, *record)
	return Result{Record: *record}, nil
}

// History returns the session history, most recent first.
func (s *Session) History() []models.HistoryEntry {
	return s.history.List()
}
