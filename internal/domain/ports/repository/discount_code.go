package repository

import (
	"context"

	"cabin-rental-billing/internal/domain/model"
)

type DiscountCodeRepository interface {
	// FindByCode looks up a normalized (upper-case) code.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.DiscountCode, error)
	Save(ctx context.Context, tx Tx, d *model.DiscountCode) error
}
