//go:build !integration

package web_test

import (
	"context"
	"time"

	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/usecase"
)

// ---- use case stubs ----

type stubAgreements struct {
	CreateFunc func(ctx context.Context, ownerID, listingID string, plan model.PlanType, discountCode string) (string, error)
}

var _ usecase.AgreementUseCase = (*stubAgreements)(nil)

func (s *stubAgreements) CreateSubscription(ctx context.Context, ownerID, listingID string, plan model.PlanType, discountCode string) (string, error) {
	return s.CreateFunc(ctx, ownerID, listingID, plan, discountCode)
}

type stubCancellations struct {
	CancelFunc func(ctx context.Context, subscriptionID, callerOwnerID string) (time.Time, error)
}

var _ usecase.CancellationUseCase = (*stubCancellations)(nil)

func (s *stubCancellations) Cancel(ctx context.Context, subscriptionID, callerOwnerID string) (time.Time, error) {
	return s.CancelFunc(ctx, subscriptionID, callerOwnerID)
}

type stubReconciler struct {
	ProcessFunc func(ctx context.Context, evt *model.WebhookEvent) (usecase.WebhookOutcome, error)

	Received []*model.WebhookEvent
}

var _ usecase.WebhookReconciler = (*stubReconciler)(nil)

func (s *stubReconciler) Process(ctx context.Context, evt *model.WebhookEvent) (usecase.WebhookOutcome, error) {
	s.Received = append(s.Received, evt)
	if s.ProcessFunc != nil {
		return s.ProcessFunc(ctx, evt)
	}
	return usecase.OutcomeApplied, nil
}
