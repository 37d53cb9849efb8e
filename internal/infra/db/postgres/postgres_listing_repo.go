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

var _ repository.ListingRepository = (*listingRepo)(nil)

type listingRepo struct{ pool *pgxpool.Pool }

func NewListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

func (r *listingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	const q = `SELECT id, owner_id, title, is_active, subscription_id, created_at, updated_at FROM listings WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	l := &model.Listing{}
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.IsActive, &l.SubscriptionID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}

// SetActive touches only the two columns billing owns. The back-reference is
// preserved on plain deactivation (nil subscriptionID) so a lapsed listing
// still points at the subscription that covered it.
func (r *listingRepo) SetActive(ctx context.Context, tx repository.Tx, listingID string, active bool, subscriptionID *string) error {
	const q = `UPDATE listings SET is_active=$2, subscription_id=COALESCE($3, subscription_id), updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, listingID, active, subscriptionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
