package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

type OutboxRepo struct {
	db *bun.DB
}

func NewOutboxRepo(db *bun.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

var _ store.OutboxRepository = (*OutboxRepo)(nil)

func (r *OutboxRepo) PublishPending(ctx context.Context, limit int, fn func(ctx context.Context, events []domain.OutboxEvent) error) (int, error) {
	var published int
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var events []domain.OutboxEvent
		err := tx.NewSelect().
			Model(&events).
			Where("published_at IS NULL").
			OrderExpr("id ASC").
			Limit(limit).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		if err := fn(ctx, events); err != nil {
			return err
		}

		ids := make([]int64, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		_, err = tx.NewUpdate().
			Model((*domain.OutboxEvent)(nil)).
			Set("published_at = ?", time.Now().UTC()).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return err
		}
		published = len(events)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// appendEvent stores evt with the caller's trace context so the publisher can continue
// the trace when the event reaches Kafka.
func appendEvent(ctx context.Context, db bun.IDB, evt domain.OutboxEvent) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	evt.Traceparent, evt.Tracestate = observability.TraceContextStrings(ctx)
	_, err := db.NewInsert().Model(&evt).Exec(ctx)
	return err
}
