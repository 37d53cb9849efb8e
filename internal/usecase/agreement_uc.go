// File: internal/usecase/agreement_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ AgreementUseCase = (*agreementUC)(nil)

// AgreementUseCase creates new subscriptions: ownership check, duplicate
// guard, discount application, provider agreement, then the pending row.
//
// Write order is provider-call-first, persist-second: a provider failure
// leaves no local state, and a local failure after the provider succeeded is
// logged at error level for manual reconciliation (there is no provider-side
// two-phase commit to lean on).
type AgreementUseCase interface {
	CreateSubscription(ctx context.Context, ownerID, listingID string, plan model.PlanType, discountCode string) (redirectURL string, err error)
}

// PlanPricing maps plan type to the monthly price in minor units.
type PlanPricing map[model.PlanType]int64

type agreementUC struct {
	listings  repository.ListingRepository
	subs      repository.SubscriptionRepository
	validator DiscountCodeValidator
	provider  adapter.PaymentProvider
	tm        repository.TransactionManager
	pricing   PlanPricing
	log       *zerolog.Logger
}

func NewAgreementUseCase(
	listings repository.ListingRepository,
	subs repository.SubscriptionRepository,
	validator DiscountCodeValidator,
	provider adapter.PaymentProvider,
	tm repository.TransactionManager,
	pricing PlanPricing,
	logger *zerolog.Logger,
) *agreementUC {
	return &agreementUC{
		listings:  listings,
		subs:      subs,
		validator: validator,
		provider:  provider,
		tm:        tm,
		pricing:   pricing,
		log:       logger,
	}
}

func (u *agreementUC) CreateSubscription(ctx context.Context, ownerID, listingID string, plan model.PlanType, discountCode string) (string, error) {
	price, ok := u.pricing[plan]
	if !ok {
		return "", domain.ErrInvalidArgument
	}

	// Authorize: caller must own the listing.
	listing, err := u.listings.FindByID(ctx, repository.NoTX, listingID)
	if err != nil {
		return "", err
	}
	if listing.OwnerID != ownerID {
		return "", domain.ErrForbidden
	}

	// Fast-path duplicate guard. The partial unique index on
	// (owner_id, listing_id) for live rows is the real safety mechanism; this
	// check just fails early with a clean error.
	if _, err := u.subs.FindLiveByOwnerAndListing(ctx, repository.NoTX, ownerID, listingID); err == nil {
		return "", domain.ErrConflict
	} else if err != domain.ErrNotFound {
		return "", err
	}

	var (
		campaign *adapter.CampaignTerm
		code     *model.DiscountCode
		codeRef  *string
	)
	if discountCode != "" {
		code, err = u.validator.Validate(ctx, discountCode)
		if err != nil {
			return "", err
		}
		normalized := model.NormalizeCode(discountCode)
		codeRef = &normalized
		campaign = &adapter.CampaignTerm{PriceAmount: 0, DurationMonths: code.DurationMonths}
	}

	ref, err := u.provider.CreateAgreement(ctx, adapter.AgreementRequest{
		OwnerID:     ownerID,
		PlanType:    plan,
		PriceAmount: price,
		Description: fmt.Sprintf("%s listing subscription", plan),
		Campaign:    campaign,
	})
	if err != nil {
		return "", err
	}

	sub, err := model.NewPendingSubscription(uuid.NewString(), ownerID, listingID, plan, price, ref.AgreementID, codeRef)
	if err != nil {
		return "", err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if code != nil && code.MaxUses != nil {
			// Authoritative recount at commit time. The earlier Validate call may
			// have raced another redemption; the last writer re-checks here.
			used, err := u.subs.CountByDiscountCode(ctx, tx, code.Code)
			if err != nil {
				return err
			}
			if used >= *code.MaxUses {
				return domain.ErrDiscountExhausted
			}
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			if err == domain.ErrAlreadyExists {
				return domain.ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		if err == domain.ErrDiscountExhausted || err == domain.ErrConflict {
			// Provider agreement exists but we refused locally; the payer never
			// approved it, so it stays pending provider-side and times out there.
			u.log.Warn().Str("agreement_id", ref.AgreementID).Err(err).
				Msg("agreement created but local checks refused the subscription")
			return "", err
		}
		// The genuine inconsistency window: provider call succeeded, local
		// persist did not. Flagged for manual reconciliation; blind retry could
		// double-charge.
		u.log.Error().
			Str("agreement_id", ref.AgreementID).
			Str("owner_id", ownerID).
			Str("listing_id", listingID).
			Err(err).
			Msg("MANUAL RECONCILIATION REQUIRED: provider agreement created but local persist failed")
		return "", domain.ErrOperationFailed
	}

	u.log.Info().
		Str("subscription_id", sub.ID).
		Str("agreement_id", ref.AgreementID).
		Str("owner_id", ownerID).
		Str("plan", string(plan)).
		Msg("subscription created pending approval")
	return ref.RedirectURL, nil
}
