package adapter

import (
	"context"

	"cabin-rental-billing/internal/domain/model"
)

// CampaignTerm is a provider-side pricing override attached to a new agreement,
// e.g. the zero-cost months granted by a discount code.
type CampaignTerm struct {
	PriceAmount    int64 // minor units during the campaign
	DurationMonths int
}

// AgreementRequest carries everything the provider needs to create a recurring
// agreement. The caller redirects the payer to RedirectURL out of band.
type AgreementRequest struct {
	OwnerID     string
	PlanType    model.PlanType
	PriceAmount int64 // minor units per month
	Description string
	Campaign    *CampaignTerm
}

type AgreementRef struct {
	AgreementID string
	RedirectURL string
}

// PaymentProvider is the hex port for recurring-payment providers.
//
// Failure semantics: transport errors, timeouts and non-2xx provider responses
// surface as domain.ErrProviderUnavailable (wrapped). Callers do not retry and
// commit no local state on failure.
type PaymentProvider interface {
	Name() string

	// CreateAgreement initiates a recurring agreement. Each call carries a fresh
	// idempotency token so provider-side retries of the same HTTP request cannot
	// create duplicate agreements.
	CreateAgreement(ctx context.Context, req AgreementRequest) (AgreementRef, error)

	// CancelAgreement stops an agreement. Already-stopped and unknown agreements
	// are success, not errors: the desired end state holds either way.
	CancelAgreement(ctx context.Context, agreementID string) error
}
