package model

import (
	"strings"
	"time"

	"cabin-rental-billing/internal/domain"
)

// DiscountCode grants a zero-cost campaign term of DurationMonths on a new
// agreement. Usage count is derived from subscriptions referencing the code,
// never stored, so there is no second source of truth to drift.
type DiscountCode struct {
	Code           string // stored upper-case, compared case-insensitively
	DurationMonths int
	ValidUntil     time.Time
	IsActive       bool
	MaxUses        *int // nil means unlimited
}

// NormalizeCode folds user input to the stored representation.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Usable checks everything except the usage cap, which needs a count from
// storage. usedCount is the number of subscriptions already carrying the code.
func (d *DiscountCode) Usable(now time.Time, usedCount int) error {
	if !d.IsActive {
		return domain.ErrDiscountInactive
	}
	if d.ValidUntil.Before(truncateToDay(now)) {
		return domain.ErrDiscountExpired
	}
	if d.MaxUses != nil && usedCount >= *d.MaxUses {
		return domain.ErrDiscountExhausted
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
