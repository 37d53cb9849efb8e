package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/repository"
	"cabin-rental-billing/internal/infra/metrics"
	red "cabin-rental-billing/internal/infra/redis"
)

var _ repository.DiscountCodeRepository = (*discountCodeRepoCacheDecorator)(nil)

// discountCodeRepoCacheDecorator caches code lookups. Validation is the hot
// read path; the authoritative cap recount never goes through here, it counts
// subscriptions in Postgres inside the creation transaction.
type discountCodeRepoCacheDecorator struct {
	inner repository.DiscountCodeRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewDiscountCodeRepoCacheDecorator(inner repository.DiscountCodeRepository, cache red.RedisClient, ttl time.Duration) repository.DiscountCodeRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &discountCodeRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func discountKey(code string) string {
	return fmt.Sprintf("discount:%s", model.NormalizeCode(code))
}

func (d *discountCodeRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.DiscountCode, error) {
	key := discountKey(code)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("discount_code", "hit")
		var dc model.DiscountCode
		if json.Unmarshal([]byte(val), &dc) == nil {
			return &dc, nil
		}
	}
	// A miss and a Redis failure both degrade to a database read.
	metrics.IncCacheRequest("discount_code", "miss")
	dc, err := d.inner.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if dc != nil {
		bytes, _ := json.Marshal(dc)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return dc, nil
}

// Writes invalidate the cached entry.
func (d *discountCodeRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, dc *model.DiscountCode) error {
	_ = d.cache.Del(ctx, discountKey(dc.Code))
	return d.inner.Save(ctx, tx, dc)
}
