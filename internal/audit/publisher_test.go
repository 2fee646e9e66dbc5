package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, Event) error { return f.err }

func TestPublisher_StampsMissingTimestamp(t *testing.T) {
	mem := NewMemorySink()
	pub := NewPublisher([]Sink{mem}, WithClock(func() time.Time { return fixedNow }))

	require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionIdentityConsulted, Subject: "7234****"}))

	events := mem.Events()
	require.Len(t, events, 1)
	assert.Equal(t, fixedNow, events[0].Timestamp)
}

func TestPublisher_KeepsExplicitTimestamp(t *testing.T) {
	mem := NewMemorySink()
	pub := NewPublisher([]Sink{mem}, WithClock(func() time.Time { return fixedNow }))
	explicit := fixedNow.Add(-time.Hour)

	require.NoError(t, pub.Emit(context.Background(), Event{Timestamp: explicit}))

	assert.Equal(t, explicit, mem.Events()[0].Timestamp)
}

func TestPublisher_FailingSinkDoesNotStopOthers(t *testing.T) {
	boom := errors.New("sink down")
	mem := NewMemorySink()
	pub := NewPublisher([]Sink{failingSink{err: boom}, mem})

	err := pub.Emit(context.Background(), Event{Action: ActionIdentityConsulted})

	require.ErrorIs(t, err, boom)
	assert.Len(t, mem.Events(), 1)
}

func TestMemorySink_ConcurrentAppend(t *testing.T) {
	mem := NewMemorySink()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mem.Append(context.Background(), Event{Action: ActionIdentityConsulted})
		}()
	}
	wg.Wait()
	assert.Len(t, mem.Events(), 50)
}

func TestLogSink_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Append(context.Background(), Event{
		Action:         ActionIdentityConsulted,
		RequestID:      "req-1",
		Subject:        "7234****",
		Outcome:        OutcomeFailure,
		Category:       "upstream_rejected",
		UpstreamStatus: 503,
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "7234****", line["subject"])
	assert.Equal(t, "upstream_rejected", line["category"])
	assert.Equal(t, float64(503), line["upstream_status"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.NotContains(t, line, "client_ip")
}

type fakeProducer struct {
	mu       sync.Mutex
	records  []*kgo.Record
	failWith error
	flushed  bool
	closed   bool
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
	promise(r, f.failWith)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeProducer) Close() { f.closed = true }

func TestKafkaSink_ProducesKeyedJSONRecord(t *testing.T) {
	fake := &fakeProducer{}
	sink := newKafkaSink(fake, DefaultTopic, nil)

	event := Event{
		Timestamp: fixedNow,
		Action:    ActionIdentityConsulted,
		RequestID: "req-42",
		Subject:   "7234****",
		Outcome:   OutcomeSuccess,
		Duration:  120 * time.Millisecond,
	}
	require.NoError(t, sink.Append(context.Background(), event))

	require.Len(t, fake.records, 1)
	rec := fake.records[0]
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, []byte("7234****"), rec.Key)
	assert.Equal(t, fixedNow, rec.Timestamp)

	var decoded Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, event, decoded)

	headers := map[string]string{}
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "identity.consulted", headers["action"])
	assert.Equal(t, "req-42", headers["request_id"])
}

func TestKafkaSink_DeliveryFailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeProducer{failWith: errors.New("broker unavailable")}
	sink := newKafkaSink(fake, "audit", slog.New(slog.NewTextHandler(&buf, nil)))

	err := sink.Append(context.Background(), Event{RequestID: "req-9"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "failed to deliver audit event")
	assert.Contains(t, buf.String(), "broker unavailable")
}

func TestKafkaSink_CloseFlushes(t *testing.T) {
	fake := &fakeProducer{}
	sink := newKafkaSink(fake, "audit", nil)

	require.NoError(t, sink.Close())
	assert.True(t, fake.flushed)
	assert.True(t, fake.closed)
}

func TestNewKafkaSink_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaSink(nil, "audit", nil)
	require.Error(t, err)
}
