package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
)

var _ repository.DiscountCodeRepository = (*discountCodeRepo)(nil)

type discountCodeRepo struct{ pool *pgxpool.Pool }

func NewDiscountCodeRepo(pool *pgxpool.Pool) *discountCodeRepo {
	return &discountCodeRepo{pool: pool}
}

func (r *discountCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.DiscountCode, error) {
	const q = `SELECT code, duration_months, valid_until, is_active, max_uses FROM discount_codes WHERE code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, model.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	d := &model.DiscountCode{}
	if err := row.Scan(&d.Code, &d.DurationMonths, &d.ValidUntil, &d.IsActive, &d.MaxUses); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return d, nil
}

func (r *discountCodeRepo) Save(ctx context.Context, tx repository.Tx, d *model.DiscountCode) error {
	const q = `
INSERT INTO discount_codes (code, duration_months, valid_until, is_active, max_uses)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (code) DO UPDATE SET
  duration_months=$2, valid_until=$3, is_active=$4, max_uses=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, model.NormalizeCode(d.Code), d.DurationMonths, d.ValidUntil, d.IsActive, d.MaxUses)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
