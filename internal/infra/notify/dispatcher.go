package notify

import (
	"context"

	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/infra/worker"
)

// Compile-time check
var _ adapter.Notifier = (*Dispatcher)(nil)

// Dispatcher makes notification delivery asynchronous: callers hand off after
// commit and return immediately, so an outage in the mail path can never block
// a billing transition. A full queue drops the notification (and says so).
type Dispatcher struct {
	pool  *worker.Pool
	inner adapter.Notifier
	log   *zerolog.Logger
}

func NewDispatcher(pool *worker.Pool, inner adapter.Notifier, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{pool: pool, inner: inner, log: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, ownerID string, kind adapter.NotificationKind, meta map[string]string) error {
	err := d.pool.Submit(func(taskCtx context.Context) error {
		return d.inner.Notify(taskCtx, ownerID, kind, meta)
	})
	if err != nil {
		d.log.Warn().Str("owner_id", ownerID).Str("kind", string(kind)).Err(err).
			Msg("notification dropped")
	}
	// Dispatch failures are deliberately swallowed after logging.
	return nil
}
