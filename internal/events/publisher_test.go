package events

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
)

type fakeOutbox struct {
	pending   []domain.OutboxEvent
	published []domain.OutboxEvent
}

func (f *fakeOutbox) PublishPending(ctx context.Context, limit int, fn func(ctx context.Context, events []domain.OutboxEvent) error) (int, error) {
	batch := f.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := fn(ctx, batch); err != nil {
		return 0, err
	}
	f.published = append(f.published, batch...)
	f.pending = f.pending[len(batch):]
	return len(batch), nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestPublishOnce_WritesMessagesWithHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	repo := &fakeOutbox{pending: []domain.OutboxEvent{
		{ID: 1, EventID: "e1", AggregateID: "r1", EventType: domain.EventReservationRequested, Payload: []byte(`{"id":"r1"}`), Traceparent: traceparent},
		{ID: 2, EventID: "e2", AggregateID: "r1", EventType: domain.EventReservationConfirmed, Payload: []byte(`{"id":"r1"}`)},
		{ID: 3, EventID: "e3", AggregateID: "r2", EventType: domain.EventReservationRequested},
	}}
	writer := &fakeWriter{}
	p := NewPublisher(repo, writer, nil, observability.NewMetrics(), PublisherConfig{BatchSize: 2, TopicPrefix: "tarot."})

	n, err := p.PublishOnce(context.Background())
	if err != nil {
		t.Fatalf("PublishOnce error: %v", err)
	}
	if n != 2 || len(writer.msgs) != 2 || len(repo.pending) != 1 {
		t.Fatalf("n=%d written=%d pending=%d", n, len(writer.msgs), len(repo.pending))
	}

	first := writer.msgs[0]
	if first.Topic != "tarot.reservation.requested.v1" || string(first.Key) != "r1" {
		t.Fatalf("topic=%q key=%q", first.Topic, first.Key)
	}
	if HeaderValue(first.Headers, "event_id") != "e1" || HeaderValue(first.Headers, "event_type") != domain.EventReservationRequested {
		t.Fatalf("headers = %v", first.Headers)
	}
	if got := HeaderValue(first.Headers, "traceparent"); got != traceparent {
		t.Fatalf("traceparent = %q", got)
	}
	if got := HeaderValue(writer.msgs[1].Headers, "traceparent"); got != "" {
		t.Fatalf("untraced event got traceparent %q", got)
	}
}

func TestPublishOnce_WriteFailureKeepsEventsPending(t *testing.T) {
	repo := &fakeOutbox{pending: []domain.OutboxEvent{{ID: 1, EventID: "e1", EventType: domain.EventReservationRequested}}}
	writer := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisher(repo, writer, nil, nil, PublisherConfig{})

	if _, err := p.PublishOnce(context.Background()); !errors.Is(err, writer.err) {
		t.Fatalf("err = %v", err)
	}
	if len(repo.pending) != 1 || len(repo.published) != 0 {
		t.Fatalf("failed batch marked published")
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092,")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("SplitBrokers = %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestInjectTraceHeadersOverwrites(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	ctx := observability.ContextWithTraceContext(context.Background(), traceparent, "")

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: "traceparent", Value: []byte("stale")}})
	if len(headers) != 1 || string(headers[0].Value) != traceparent {
		t.Fatalf("headers = %v", headers)
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
