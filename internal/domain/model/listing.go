package model

import "time"

// Listing is owned by the marketplace side of the system. The billing core only
// flips visibility and the subscription back-reference; everything else is
// read-only here.
type Listing struct {
	ID             string
	OwnerID        string
	Title          string
	IsActive       bool
	SubscriptionID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
