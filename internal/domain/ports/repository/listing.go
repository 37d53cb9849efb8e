package repository

import (
	"context"

	"cabin-rental-billing/internal/domain/model"
)

// ListingRepository gives the billing core its narrow window into listings:
// ownership lookup plus the two fields billing is allowed to mutate.
type ListingRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)
	// SetActive flips visibility and (when subscriptionID is non-nil) binds the
	// subscription back-reference.
	SetActive(ctx context.Context, tx Tx, listingID string, active bool, subscriptionID *string) error
}
