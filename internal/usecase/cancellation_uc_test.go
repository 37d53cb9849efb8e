//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/domain/ports/repository"
	"cabin-rental-billing/internal/usecase"
)

func seedActiveSubscription(subs *MockSubscriptionRepo, periodEnd time.Time) *model.Subscription {
	listingID := "listing-1"
	agreementID := "agr-1"
	sub := &model.Subscription{
		ID:                  "sub-1",
		OwnerID:             "owner-1",
		ListingID:           &listingID,
		PlanType:            model.PlanBasic,
		PriceAmount:         19900,
		Status:              model.SubscriptionStatusActive,
		ProviderAgreementID: &agreementID,
		CurrentPeriodStart:  periodEnd.AddDate(0, -1, 0),
		CurrentPeriodEnd:    periodEnd,
		CreatedAt:           now(),
		UpdatedAt:           now(),
	}
	subs.Save(context.Background(), repository.NoTX, sub)
	return sub
}

func TestCancellationUseCase_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel and report the grace period end", func(t *testing.T) {
		subs := NewMockSubscriptionRepo()
		provider := &MockPaymentProvider{}
		notifier := &MockNotifier{}
		periodEnd := now().AddDate(0, 0, 12)
		seedActiveSubscription(subs, periodEnd)

		uc := usecase.NewCancellationUseCase(subs, provider, NewMockTxManager(), notifier, newTestLogger())

		got, err := uc.Cancel(ctx, "sub-1", "owner-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !got.Equal(periodEnd) {
			t.Errorf("expected period end %v, got %v", periodEnd, got)
		}
		if len(provider.CancelCalls) != 1 || provider.CancelCalls[0] != "agr-1" {
			t.Errorf("expected one provider cancel for agr-1, got %v", provider.CancelCalls)
		}

		sub, _ := subs.FindByID(ctx, repository.NoTX, "sub-1")
		if sub.Status != model.SubscriptionStatusCanceled {
			t.Errorf("expected canceled, got %s", sub.Status)
		}
		if len(notifier.Sent) != 1 || notifier.Sent[0].Kind != adapter.NotifySubscriptionCanceled {
			t.Errorf("expected a cancellation notification, got %+v", notifier.Sent)
		}
	})

	t.Run("should refuse a caller who does not own the subscription", func(t *testing.T) {
		subs := NewMockSubscriptionRepo()
		provider := &MockPaymentProvider{}
		seedActiveSubscription(subs, now().AddDate(0, 0, 12))

		uc := usecase.NewCancellationUseCase(subs, provider, NewMockTxManager(), &MockNotifier{}, newTestLogger())

		_, err := uc.Cancel(ctx, "sub-1", "owner-2")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if len(provider.CancelCalls) != 0 {
			t.Error("provider must not be called for a forbidden cancel")
		}
	})

	t.Run("should refuse a second cancel of the same subscription", func(t *testing.T) {
		subs := NewMockSubscriptionRepo()
		provider := &MockPaymentProvider{}
		seedActiveSubscription(subs, now().AddDate(0, 0, 12))

		uc := usecase.NewCancellationUseCase(subs, provider, NewMockTxManager(), &MockNotifier{}, newTestLogger())

		if _, err := uc.Cancel(ctx, "sub-1", "owner-1"); err != nil {
			t.Fatalf("first cancel failed: %v", err)
		}
		_, err := uc.Cancel(ctx, "sub-1", "owner-1")
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("should keep local state when the provider fails", func(t *testing.T) {
		subs := NewMockSubscriptionRepo()
		provider := &MockPaymentProvider{
			CancelAgreementFunc: func(ctx context.Context, agreementID string) error {
				return domain.ErrProviderUnavailable
			},
		}
		seedActiveSubscription(subs, now().AddDate(0, 0, 12))

		uc := usecase.NewCancellationUseCase(subs, provider, NewMockTxManager(), &MockNotifier{}, newTestLogger())

		_, err := uc.Cancel(ctx, "sub-1", "owner-1")
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
		sub, _ := subs.FindByID(ctx, repository.NoTX, "sub-1")
		if sub.Status != model.SubscriptionStatusActive {
			t.Error("subscription must stay active when the provider call fails")
		}
	})

	t.Run("should report invalid state when a webhook wins the race", func(t *testing.T) {
		subs := NewMockSubscriptionRepo()
		seedActiveSubscription(subs, now().AddDate(0, 0, 12))
		// The guarded update misses because a stop webhook landed in between.
		subs.UpdateStatusIfFunc = func(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus) (bool, error) {
			return false, nil
		}

		uc := usecase.NewCancellationUseCase(subs, &MockPaymentProvider{}, NewMockTxManager(), &MockNotifier{}, newTestLogger())

		_, err := uc.Cancel(ctx, "sub-1", "owner-1")
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("should return not found for an unknown subscription", func(t *testing.T) {
		uc := usecase.NewCancellationUseCase(NewMockSubscriptionRepo(), &MockPaymentProvider{}, NewMockTxManager(), &MockNotifier{}, newTestLogger())

		_, err := uc.Cancel(ctx, "missing", "owner-1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
