package repository

import (
	"context"

	"cabin-rental-billing/internal/domain/model"
)

// PaymentEventRepository is the idempotency ledger.
type PaymentEventRepository interface {
	// InsertIfAbsent atomically inserts the event keyed by ProviderEventID.
	// Returns false without error when the id is already ledgered; exactly one
	// of two concurrent deliveries of the same event sees true.
	InsertIfAbsent(ctx context.Context, tx Tx, e *model.PaymentEvent) (bool, error)
	FindByProviderEventID(ctx context.Context, tx Tx, providerEventID string) (*model.PaymentEvent, error)
}
