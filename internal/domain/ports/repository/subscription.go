package repository

import (
	"context"
	"time"

	"cabin-rental-billing/internal/domain/model"
)

// SubscriptionRepository persists subscriptions. Status transitions go through
// the guarded Update* methods: they only apply when the current status matches
// one of the expected prior statuses and report whether a row changed, so a
// stale event observes "no rows" instead of regressing state.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByAgreementID(ctx context.Context, tx Tx, agreementID string) (*model.Subscription, error)
	// FindLiveByOwnerAndListing returns the pending/active subscription for the
	// pair, or domain.ErrNotFound.
	FindLiveByOwnerAndListing(ctx context.Context, tx Tx, ownerID, listingID string) (*model.Subscription, error)

	// UpdateStatusIf transitions id to `to` only when the current status is one
	// of `from`. Returns true when a row was updated.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus) (bool, error)
	// UpdateStatusAndPeriodIf is UpdateStatusIf plus an authoritative period write.
	UpdateStatusAndPeriodIf(ctx context.Context, tx Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus, periodStart, periodEnd time.Time) (bool, error)

	// CountByDiscountCode counts subscriptions referencing a code; the derived
	// usage count for cap enforcement.
	CountByDiscountCode(ctx context.Context, tx Tx, code string) (int, error)

	// ListLapsed returns canceled/past_due subscriptions whose period end has
	// passed, for the deactivation sweep.
	ListLapsed(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*model.Subscription, error)
}
