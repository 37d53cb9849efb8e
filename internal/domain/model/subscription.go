package model

import (
	"time"

	"cabin-rental-billing/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
)

func ParsePlanType(s string) (PlanType, error) {
	switch PlanType(s) {
	case PlanBasic, PlanPremium:
		return PlanType(s), nil
	}
	return "", domain.ErrInvalidArgument
}

// Subscription is a listing owner's recurring billing agreement for one listing.
// Created pending by the agreement flow; transitioned onward only by the webhook
// reconciler and the cancellation flow. Rows are never deleted by either.
type Subscription struct {
	ID                  string // UUID
	OwnerID             string
	ListingID           *string // nil until bound to a listing
	PlanType            PlanType
	PriceAmount         int64 // minor currency unit (øre)
	Status              SubscriptionStatus
	ProviderAgreementID *string // nil until the provider responds
	CurrentPeriodStart  time.Time
	CurrentPeriodEnd    time.Time
	DiscountCode        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewPendingSubscription builds the row persisted after a successful provider
// agreement call. The period is a provisional estimate; the activation webhook
// sets the authoritative one.
func NewPendingSubscription(id, ownerID, listingID string, plan PlanType, priceAmount int64, agreementID string, discountCode *string) (*Subscription, error) {
	if id == "" || ownerID == "" || listingID == "" || agreementID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:                  id,
		OwnerID:             ownerID,
		ListingID:           &listingID,
		PlanType:            plan,
		PriceAmount:         priceAmount,
		Status:              SubscriptionStatusPending,
		ProviderAgreementID: &agreementID,
		CurrentPeriodStart:  now,
		CurrentPeriodEnd:    now.AddDate(0, 1, 0),
		DiscountCode:        discountCode,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// InGracePeriod reports whether the paid period still covers the listing.
func (s *Subscription) InGracePeriod(now time.Time) bool {
	return now.Before(s.CurrentPeriodEnd)
}

// IsLive reports whether this row blocks creation of another subscription
// for the same (owner, listing) pair.
func (s *Subscription) IsLive() bool {
	return s.Status == SubscriptionStatusPending || s.Status == SubscriptionStatusActive
}
