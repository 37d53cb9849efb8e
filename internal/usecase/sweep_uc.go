// File: internal/usecase/sweep_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ SweepUseCase = (*sweepUC)(nil)

// SweepUseCase finishes subscriptions whose paid period has lapsed. Canceled
// subscriptions keep their listing visible until current_period_end; the sweep
// is what actually takes the listing down once that moment passes, and marks
// the subscription expired.
type SweepUseCase interface {
	SweepLapsed(ctx context.Context, asOf time.Time, limit int) (int, error)
}

type sweepUC struct {
	subs     repository.SubscriptionRepository
	listings repository.ListingRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewSweepUseCase(
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *sweepUC {
	return &sweepUC{subs: subs, listings: listings, tm: tm, log: logger}
}

func (u *sweepUC) SweepLapsed(ctx context.Context, asOf time.Time, limit int) (int, error) {
	swept := 0
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		lapsed, err := u.subs.ListLapsed(ctx, tx, asOf, limit)
		if err != nil {
			return err
		}
		for _, sub := range lapsed {
			ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
				[]model.SubscriptionStatus{model.SubscriptionStatusCanceled, model.SubscriptionStatusPastDue},
				model.SubscriptionStatusExpired)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if sub.ListingID != nil {
				if err := u.listings.SetActive(ctx, tx, *sub.ListingID, false, nil); err != nil {
					return err
				}
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}
