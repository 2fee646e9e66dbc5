package audit

import (
	"context"
	"log/slog"
)

// LogSink writes audit events as structured log records.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event Event) error {
	attrs := []any{
		"action", string(event.Action),
		"subject", event.Subject,
		"outcome", string(event.Outcome),
		"duration_ms", event.Duration.Milliseconds(),
		"timestamp", event.Timestamp,
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	if event.Category != "" {
		attrs = append(attrs, "category", event.Category)
	}
	if event.UpstreamStatus != 0 {
		attrs = append(attrs, "upstream_status", event.UpstreamStatus)
	}
	if event.Coalesced {
		attrs = append(attrs, "coalesced", true)
	}
	if event.ClientIP != "" {
		attrs = append(attrs, "client_ip", event.ClientIP)
	}
	if event.ClientPlatform != "" {
		attrs = append(attrs, "client_platform", event.ClientPlatform)
	}
	s.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}
