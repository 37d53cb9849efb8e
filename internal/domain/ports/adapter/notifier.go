package adapter

import "context"

// NotificationKind names the owner-facing messages billing emits.
type NotificationKind string

const (
	NotifySubscriptionActivated NotificationKind = "subscription_activated"
	NotifySubscriptionCanceled  NotificationKind = "subscription_canceled"
	NotifyChargeFailed          NotificationKind = "charge_failed"
)

// Notifier is the post-commit side-effect port. Implementations must be safe
// to fail: a notification outage never blocks or rolls back a billing
// transition, so callers dispatch after commit and ignore the error beyond
// logging it.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, kind NotificationKind, meta map[string]string) error
}
