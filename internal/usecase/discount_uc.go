// File: internal/usecase/discount_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ DiscountCodeValidator = (*discountUC)(nil)

// DiscountCodeValidator answers "is this code usable right now". It is
// side-effect free: nothing is reserved or incremented. The authoritative
// recount happens again inside the agreement-creation transaction, so two
// concurrent redemptions of a capped code cannot both slip through; the window
// between Validate and commit is accepted and re-checked, not locked away.
type DiscountCodeValidator interface {
	// Validate returns the code on success, or one of the ErrDiscount* sentinels.
	Validate(ctx context.Context, code string) (*model.DiscountCode, error)
}

type discountUC struct {
	codes repository.DiscountCodeRepository
	subs  repository.SubscriptionRepository
	log   *zerolog.Logger
}

func NewDiscountCodeValidator(codes repository.DiscountCodeRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *discountUC {
	return &discountUC{codes: codes, subs: subs, log: logger}
}

func (u *discountUC) Validate(ctx context.Context, code string) (*model.DiscountCode, error) {
	normalized := model.NormalizeCode(code)
	if normalized == "" {
		return nil, domain.ErrDiscountNotFound
	}

	d, err := u.codes.FindByCode(ctx, repository.NoTX, normalized)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrDiscountNotFound
		}
		return nil, err
	}

	used := 0
	if d.MaxUses != nil {
		used, err = u.subs.CountByDiscountCode(ctx, repository.NoTX, normalized)
		if err != nil {
			return nil, err
		}
	}

	if err := d.Usable(time.Now(), used); err != nil {
		u.log.Debug().Str("code", normalized).Err(err).Msg("discount code rejected")
		return nil, err
	}
	return d, nil
}
