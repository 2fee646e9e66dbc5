package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"padron/internal/audit"
	"padron/internal/identity/metrics"
	"padron/internal/identity/models"
	"padron/internal/identity/normalize"
	"padron/internal/identity/registry"
	"padron/pkg/domain"
	"padron/pkg/requestcontext"
)

// Registry fetches the raw registry payload for one identity number.
type Registry interface {
	Fetch(ctx context.Context, id domain.DNI, credential string) (models.RawPayload, error)
}

// AuditPublisher records one audit event per consultation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const outcomeSuccess = "success"

// Service validates identity numbers, consults the registry and normalizes
// the answer. Concurrent consultations of the same identity with the same
// credential share a single registry call; sequential ones do not.
//
// History is not consulted here; callers that want per-session reuse wrap
// the service (see the session package).
type Service struct {
	registry Registry
	metrics  *metrics.Metrics
	auditor  AuditPublisher
	logger   *slog.Logger
	inflight singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(reg Registry, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consult looks up rawID in the registry. Malformed input fails with a
// KindInvalidFormat error before any I/O. Registry failures are returned
// unchanged as *registry.LookupError. A non-empty credentialOverride
// replaces the configured registry credential for this call only.
func (s *Service) Consult(ctx context.Context, rawID, credentialOverride string) (*models.PersonRecord, error) {
	start := time.Now()

	id, err := domain.ParseDNI(rawID)
	if err != nil {
		lookupErr := registry.InvalidFormat()
		s.record(ctx, domain.MaskDNI(rawID), start, false, lookupErr)
		return nil, lookupErr
	}

	record, coalesced, err := s.fetch(ctx, id, credentialOverride)
	s.record(ctx, id.Masked(), start, coalesced, err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) fetch(ctx context.Context, id domain.DNI, credential string) (*models.PersonRecord, bool, error) {
	key := id.String() + "\x00" + credential

	// executed is only read after the result arrives on the channel, which
	// orders it after the write in the leader's goroutine.
	executed := false
	results := s.inflight.DoChan(key, func() (any, error) {
		executed = true
		// Joiners depend on this call, so it must not die with the leader's context.
		payload, err := s.registry.Fetch(context.WithoutCancel(ctx), id, credential)
		if err != nil {
			return nil, err
		}
		record := normalize.Normalize(id, payload)
		return &record, nil
	})

	select {
	case <-ctx.Done():
		cause := ctx.Err()
		return nil, false, registry.Unreachable(cause, errors.Is(cause, context.DeadlineExceeded))
	case res := <-results:
		coalesced := !executed
		if res.Err != nil {
			return nil, coalesced, res.Err
		}
		// Every caller gets its own record; coalesced callers must not share Raw.
		record := res.Val.(*models.PersonRecord).Clone()
		return &record, coalesced, nil
	}
}

func (s *Service) record(ctx context.Context, subject string, start time.Time, coalesced bool, err error) {
	outcome := outcomeSuccess
	event := audit.Event{
		Action:         audit.ActionIdentityConsulted,
		RequestID:      requestcontext.RequestID(ctx),
		Subject:        subject,
		Outcome:        audit.OutcomeSuccess,
		Duration:       time.Since(start),
		Coalesced:      coalesced,
		ClientIP:       requestcontext.ClientIP(ctx),
		ClientPlatform: requestcontext.ClientPlatform(ctx),
		Timestamp:      requestcontext.Now(ctx),
	}
	if err != nil {
		outcome = string(registry.KindOf(err))
		event.Outcome = audit.OutcomeFailure
		event.Category = outcome
		if lookupErr, ok := registry.AsLookupError(err); ok {
			event.UpstreamStatus = lookupErr.StatusCode
		}
	}

	s.metrics.IncrementOutcome(outcome)
	if coalesced {
		s.metrics.IncrementCoalesced()
	}

	if s.auditor == nil {
		return
	}
	if auditErr := s.auditor.Emit(ctx, event); auditErr != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"error", auditErr,
			"request_id", event.RequestID,
		)
	}
}
