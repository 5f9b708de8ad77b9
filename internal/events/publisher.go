package events

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type PublisherConfig struct {
	PollEvery time.Duration
	BatchSize int
	// TopicPrefix is prepended to the event type to form the topic name.
	TopicPrefix string
}

// Publisher relays committed outbox rows to Kafka. A batch is marked published only after
// every message in it was written, so delivery is at least once.
type Publisher struct {
	repo    store.OutboxRepository
	writer  MessageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	cfg     PublisherConfig
}

func NewPublisher(repo store.OutboxRepository, writer MessageWriter, logger *slog.Logger, metrics *observability.Metrics, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{repo: repo, writer: writer, logger: logger, metrics: metrics, cfg: cfg}
}

// Run polls until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				n, err := p.PublishOnce(ctx)
				if err != nil {
					if ctx.Err() == nil {
						p.metrics.RecordOutboxFailure()
						p.logger.Error("outbox publish failed", "err", err)
					}
					break
				}
				if n < p.cfg.BatchSize {
					break
				}
			}
		}
	}
}

// PublishOnce sends one batch and returns how many events were published.
func (p *Publisher) PublishOnce(ctx context.Context) (int, error) {
	n, err := p.repo.PublishPending(ctx, p.cfg.BatchSize, func(ctx context.Context, batch []domain.OutboxEvent) error {
		msgs := make([]kafka.Message, 0, len(batch))
		for _, evt := range batch {
			msgs = append(msgs, p.message(ctx, evt))
		}
		return p.writer.WriteMessages(ctx, msgs...)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.metrics.RecordOutboxPublished(n)
		p.logger.Debug("outbox events published", "count", n)
	}
	return n, nil
}

func (p *Publisher) message(ctx context.Context, evt domain.OutboxEvent) kafka.Message {
	msg := kafka.Message{
		Topic: p.cfg.TopicPrefix + evt.EventType,
		Key:   []byte(evt.AggregateID),
		Value: evt.Payload,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(evt.EventID)},
			{Key: headerEventType, Value: []byte(evt.EventType)},
		},
	}
	msgCtx := observability.ContextWithTraceContext(ctx, evt.Traceparent, evt.Tracestate)
	msg.Headers = InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}
