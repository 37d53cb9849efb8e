//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
)

func TestNewPendingSubscription(t *testing.T) {
	t.Run("builds a pending row with a provisional month", func(t *testing.T) {
		s, err := model.NewPendingSubscription("sub-1", "owner-1", "listing-1", model.PlanBasic, 19900, "agr-1", nil)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if s.Status != model.SubscriptionStatusPending {
			t.Errorf("expected pending, got %s", s.Status)
		}
		if s.ListingID == nil || *s.ListingID != "listing-1" {
			t.Error("expected the listing bound")
		}
		if s.ProviderAgreementID == nil || *s.ProviderAgreementID != "agr-1" {
			t.Error("expected the agreement id stored")
		}
		wantEnd := s.CurrentPeriodStart.AddDate(0, 1, 0)
		if !s.CurrentPeriodEnd.Equal(wantEnd) {
			t.Errorf("expected a one month provisional period, got %v..%v", s.CurrentPeriodStart, s.CurrentPeriodEnd)
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		for name, args := range map[string][4]string{
			"no id":        {"", "owner-1", "listing-1", "agr-1"},
			"no owner":     {"sub-1", "", "listing-1", "agr-1"},
			"no listing":   {"sub-1", "owner-1", "", "agr-1"},
			"no agreement": {"sub-1", "owner-1", "listing-1", ""},
		} {
			if _, err := model.NewPendingSubscription(args[0], args[1], args[2], model.PlanBasic, 19900, args[3], nil); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
			}
		}
	})
}

func TestSubscription_GraceAndLiveness(t *testing.T) {
	now := time.Now()

	s := &model.Subscription{Status: model.SubscriptionStatusCanceled, CurrentPeriodEnd: now.Add(24 * time.Hour)}
	if !s.InGracePeriod(now) {
		t.Error("period end in the future means grace")
	}
	s.CurrentPeriodEnd = now.Add(-time.Minute)
	if s.InGracePeriod(now) {
		t.Error("period end in the past means no grace")
	}

	live := map[model.SubscriptionStatus]bool{
		model.SubscriptionStatusPending:  true,
		model.SubscriptionStatusActive:   true,
		model.SubscriptionStatusPastDue:  false,
		model.SubscriptionStatusCanceled: false,
		model.SubscriptionStatusExpired:  false,
	}
	for status, want := range live {
		s := &model.Subscription{Status: status}
		if s.IsLive() != want {
			t.Errorf("IsLive for %s: want %v", status, want)
		}
	}
}
