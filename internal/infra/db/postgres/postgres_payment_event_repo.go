package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
)

var _ repository.PaymentEventRepository = (*paymentEventRepo)(nil)

type paymentEventRepo struct{ pool *pgxpool.Pool }

func NewPaymentEventRepo(pool *pgxpool.Pool) *paymentEventRepo {
	return &paymentEventRepo{pool: pool}
}

// InsertIfAbsent relies on the unique index on provider_event_id. Two
// concurrent deliveries of the same event race on this insert; exactly one
// sees RowsAffected()==1 and carries on, the other gets a clean replay signal.
func (r *paymentEventRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) (bool, error) {
	const q = `
INSERT INTO payment_events (id, provider_event_id, event_type, payload, processed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (provider_event_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, e.ID, e.ProviderEventID, string(e.EventType), e.Payload, e.ProcessedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentEventRepo) FindByProviderEventID(ctx context.Context, tx repository.Tx, providerEventID string) (*model.PaymentEvent, error) {
	const q = `SELECT id, provider_event_id, event_type, payload, processed_at FROM payment_events WHERE provider_event_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, providerEventID)
	if err != nil {
		return nil, err
	}
	e := &model.PaymentEvent{}
	if err := row.Scan(&e.ID, &e.ProviderEventID, &e.EventType, &e.Payload, &e.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}
