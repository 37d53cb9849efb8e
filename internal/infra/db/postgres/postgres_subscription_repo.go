package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, owner_id, listing_id, plan_type, price_amount, status, provider_agreement_id, current_period_start, current_period_end, discount_code, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, owner_id, listing_id, plan_type, price_amount, status, provider_agreement_id, current_period_start, current_period_end, discount_code, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  listing_id=$3, plan_type=$4, price_amount=$5, status=$6, provider_agreement_id=$7, current_period_start=$8, current_period_end=$9, discount_code=$10, updated_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.OwnerID, s.ListingID, s.PlanType, s.PriceAmount, s.Status, s.ProviderAgreementID, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.DiscountCode, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// ux_subscriptions_owner_listing_live: another live row won the race.
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindByAgreementID(ctx context.Context, tx repository.Tx, agreementID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE provider_agreement_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += " LIMIT 1;"
	row, err := pickRow(ctx, r.pool, tx, q, agreementID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindLiveByOwnerAndListing(ctx context.Context, tx repository.Tx, ownerID, listingID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
 WHERE owner_id=$1 AND listing_id=$2 AND status IN ('pending','active') LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

// UpdateStatusIf transitions only from an expected prior status so that
// out-of-order webhook delivery cannot regress state.
func (r *subscriptionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus) (bool, error) {
	const q = `
	UPDATE subscriptions
	   SET status = $2,
	       updated_at = NOW()
	 WHERE id = $1
	   AND status = ANY($3);`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(to), statusStrings(from))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) UpdateStatusAndPeriodIf(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus, periodStart, periodEnd time.Time) (bool, error) {
	const q = `
	UPDATE subscriptions
	   SET status = $2,
	       current_period_start = $3,
	       current_period_end = $4,
	       updated_at = NOW()
	 WHERE id = $1
	   AND status = ANY($5);`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(to), periodStart, periodEnd, statusStrings(from))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) CountByDiscountCode(ctx context.Context, tx repository.Tx, code string) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions WHERE discount_code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *subscriptionRepo) ListLapsed(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
 WHERE status IN ('canceled','past_due') AND current_period_end < $1
 ORDER BY current_period_end ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, asOf, limit)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, domain.ErrNotFound
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s := new(model.Subscription)
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.ListingID, &s.PlanType, &s.PriceAmount, &s.Status, &s.ProviderAgreementID, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.DiscountCode, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.OwnerID, &s.ListingID, &s.PlanType, &s.PriceAmount, &s.Status, &s.ProviderAgreementID, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.DiscountCode, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func statusStrings(in []model.SubscriptionStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
