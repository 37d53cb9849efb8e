// File: internal/usecase/cancellation_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ CancellationUseCase = (*cancellationUC)(nil)

// CancellationUseCase handles owner-initiated cancellation. The listing stays
// visible until the paid period ends; only the status flips here. Calling
// cancel twice is a no-op the second time because of the active-status guard.
type CancellationUseCase interface {
	Cancel(ctx context.Context, subscriptionID, callerOwnerID string) (currentPeriodEnd time.Time, err error)
}

type cancellationUC struct {
	subs     repository.SubscriptionRepository
	provider adapter.PaymentProvider
	tm       repository.TransactionManager
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewCancellationUseCase(
	subs repository.SubscriptionRepository,
	provider adapter.PaymentProvider,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *cancellationUC {
	return &cancellationUC{subs: subs, provider: provider, tm: tm, notifier: notifier, log: logger}
}

func (u *cancellationUC) Cancel(ctx context.Context, subscriptionID, callerOwnerID string) (time.Time, error) {
	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return time.Time{}, err
	}
	if sub.OwnerID != callerOwnerID {
		return time.Time{}, domain.ErrForbidden
	}
	if sub.Status != model.SubscriptionStatusActive {
		return time.Time{}, domain.ErrInvalidState
	}
	if sub.ProviderAgreementID == nil {
		return time.Time{}, domain.ErrInvalidState
	}

	// Provider first. CancelAgreement treats already-stopped and unknown
	// agreements as success, so this is safe to repeat.
	if err := u.provider.CancelAgreement(ctx, *sub.ProviderAgreementID); err != nil {
		return time.Time{}, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
			[]model.SubscriptionStatus{model.SubscriptionStatusActive},
			model.SubscriptionStatusCanceled)
		if err != nil {
			return err
		}
		if !ok {
			// A webhook beat us to a terminal state between the read and here.
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	if nerr := u.notifier.Notify(ctx, sub.OwnerID, adapter.NotifySubscriptionCanceled, map[string]string{
		"subscription_id": sub.ID,
		"period_end":      sub.CurrentPeriodEnd.Format(time.RFC3339),
	}); nerr != nil {
		u.log.Warn().Str("owner_id", sub.OwnerID).Err(nerr).Msg("post-commit notification failed")
	}

	u.log.Info().Str("subscription_id", sub.ID).Time("period_end", sub.CurrentPeriodEnd).
		Msg("subscription canceled; listing stays active until period end")
	return sub.CurrentPeriodEnd, nil
}
