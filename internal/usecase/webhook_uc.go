// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ WebhookReconciler = (*webhookUC)(nil)

// Outcome of processing one verified webhook delivery.
type WebhookOutcome string

const (
	OutcomeApplied  WebhookOutcome = "applied"  // ledgered and state transitioned
	OutcomeReplay   WebhookOutcome = "replay"   // event id already ledgered, no-op
	OutcomeNoop     WebhookOutcome = "noop"     // ledgered, but the guard matched no row (stale or unknown subject)
	OutcomeUnknown  WebhookOutcome = "unknown"  // ledgered, event type not modeled
	OutcomeRejected WebhookOutcome = "rejected" // not ledgered, not applied
)

// WebhookReconciler translates verified provider events into subscription and
// listing state. Delivery is concurrent, repeated and unordered; the ledger's
// unique provider_event_id is the only serialization point for duplicates, and
// guarded conditional updates keep stale events from regressing state. Ledger
// insert, status transition and listing side effect commit as one unit.
type WebhookReconciler interface {
	Process(ctx context.Context, evt *model.WebhookEvent) (WebhookOutcome, error)
}

type webhookUC struct {
	subs     repository.SubscriptionRepository
	listings repository.ListingRepository
	events   repository.PaymentEventRepository
	tm       repository.TransactionManager
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewWebhookReconciler(
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	events repository.PaymentEventRepository,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{subs: subs, listings: listings, events: events, tm: tm, notifier: notifier, log: logger}
}

// notification collected during the transaction, dispatched only after commit
type pendingNotice struct {
	ownerID string
	kind    adapter.NotificationKind
	meta    map[string]string
}

func (u *webhookUC) Process(ctx context.Context, evt *model.WebhookEvent) (WebhookOutcome, error) {
	eventID := evt.DerivedEventID()
	if eventID == "" {
		return OutcomeRejected, domain.ErrMissingEventID
	}

	outcome := OutcomeApplied
	var notices []pendingNotice

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		inserted, err := u.events.InsertIfAbsent(ctx, tx, &model.PaymentEvent{
			ID:              ulid.Make().String(),
			ProviderEventID: eventID,
			EventType:       evt.EventType,
			Payload:         evt.Raw,
			ProcessedAt:     time.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			outcome = OutcomeReplay
			return nil
		}

		switch evt.EventType {
		case model.EventAgreementActivated:
			notices, err = u.applyActivated(ctx, tx, evt, &outcome)
		case model.EventAgreementStopped:
			notices, err = u.applyStopped(ctx, tx, evt, &outcome)
		case model.EventAgreementExpired:
			err = u.applyExpired(ctx, tx, evt, &outcome)
		case model.EventAgreementRejected:
			err = u.applyRejected(ctx, tx, evt, &outcome)
		case model.EventChargeCaptured:
			err = u.applyChargeCaptured(ctx, tx, evt, &outcome)
		case model.EventChargeFailed:
			notices, err = u.applyChargeFailed(ctx, tx, evt, &outcome)
		default:
			// Ack unknown types so the provider stops retrying; the ledger keeps
			// the payload for later inspection.
			u.log.Warn().Str("event_id", eventID).Str("event_type", string(evt.EventType)).
				Msg("unknown webhook event type acknowledged without side effects")
			outcome = OutcomeUnknown
		}
		return err
	})
	if err != nil {
		return OutcomeRejected, err
	}

	// Post-commit hook: notification failure must never roll back or block the
	// committed transition.
	for _, n := range notices {
		if nerr := u.notifier.Notify(ctx, n.ownerID, n.kind, n.meta); nerr != nil {
			u.log.Warn().Str("owner_id", n.ownerID).Str("kind", string(n.kind)).Err(nerr).
				Msg("post-commit notification failed")
		}
	}

	u.log.Info().Str("event_id", eventID).Str("event_type", string(evt.EventType)).
		Str("agreement_id", evt.AgreementID).Str("outcome", string(outcome)).
		Msg("webhook processed")
	return outcome, nil
}

// findSubject resolves the subscription an event refers to. Events for unknown
// agreements are acknowledged (the provider must not retry forever) but logged
// loudly: they usually mean the persist-after-provider-call window was hit.
func (u *webhookUC) findSubject(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent) (*model.Subscription, error) {
	sub, err := u.subs.FindByAgreementID(ctx, tx, evt.AgreementID)
	if err == domain.ErrNotFound {
		u.log.Error().Str("agreement_id", evt.AgreementID).Str("event_type", string(evt.EventType)).
			Msg("webhook for unknown agreement; possible unreconciled creation failure")
		return nil, nil
	}
	return sub, err
}

func (u *webhookUC) applyActivated(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) ([]pendingNotice, error) {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return nil, err
	}
	now := time.Now()
	ok, err := u.subs.UpdateStatusAndPeriodIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusPending},
		model.SubscriptionStatusActive, now, now.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	if !ok {
		// Stale activation: a stop/expiry already won. Never reactivate.
		*outcome = OutcomeNoop
		return nil, nil
	}
	if sub.ListingID != nil {
		if err := u.listings.SetActive(ctx, tx, *sub.ListingID, true, &sub.ID); err != nil {
			return nil, err
		}
	}
	return []pendingNotice{{
		ownerID: sub.OwnerID,
		kind:    adapter.NotifySubscriptionActivated,
		meta:    map[string]string{"subscription_id": sub.ID},
	}}, nil
}

func (u *webhookUC) applyStopped(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) ([]pendingNotice, error) {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return nil, err
	}
	ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusActive, model.SubscriptionStatusPastDue},
		model.SubscriptionStatusCanceled)
	if err != nil {
		return nil, err
	}
	if !ok {
		*outcome = OutcomeNoop
		return nil, nil
	}
	// Grace period: the paid period still covers the listing; the expiry sweep
	// deactivates it once current_period_end passes.
	if sub.ListingID != nil && !sub.InGracePeriod(time.Now()) {
		if err := u.listings.SetActive(ctx, tx, *sub.ListingID, false, nil); err != nil {
			return nil, err
		}
	}
	return []pendingNotice{{
		ownerID: sub.OwnerID,
		kind:    adapter.NotifySubscriptionCanceled,
		meta:    map[string]string{"subscription_id": sub.ID, "period_end": sub.CurrentPeriodEnd.Format(time.RFC3339)},
	}}, nil
}

func (u *webhookUC) applyExpired(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) error {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return err
	}
	ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusPending, model.SubscriptionStatusActive},
		model.SubscriptionStatusExpired)
	if err != nil {
		return err
	}
	if !ok {
		*outcome = OutcomeNoop
		return nil
	}
	if sub.ListingID != nil {
		return u.listings.SetActive(ctx, tx, *sub.ListingID, false, nil)
	}
	return nil
}

func (u *webhookUC) applyRejected(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) error {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return err
	}
	// The payer declined the agreement; it never came alive. The listing was
	// never activated, so there is nothing to deactivate.
	ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusPending},
		model.SubscriptionStatusExpired)
	if err != nil {
		return err
	}
	if !ok {
		*outcome = OutcomeNoop
	}
	return nil
}

func (u *webhookUC) applyChargeCaptured(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) error {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return err
	}
	// Renewal: roll the period exactly one month forward from processing time
	// and clear any past_due state.
	now := time.Now()
	ok, err := u.subs.UpdateStatusAndPeriodIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusActive, model.SubscriptionStatusPastDue},
		model.SubscriptionStatusActive, now, now.AddDate(0, 1, 0))
	if err != nil {
		return err
	}
	if !ok {
		*outcome = OutcomeNoop
		return nil
	}
	if sub.ListingID != nil {
		return u.listings.SetActive(ctx, tx, *sub.ListingID, true, &sub.ID)
	}
	return nil
}

func (u *webhookUC) applyChargeFailed(ctx context.Context, tx repository.Tx, evt *model.WebhookEvent, outcome *WebhookOutcome) ([]pendingNotice, error) {
	sub, err := u.findSubject(ctx, tx, evt)
	if err != nil || sub == nil {
		*outcome = OutcomeNoop
		return nil, err
	}
	ok, err := u.subs.UpdateStatusIf(ctx, tx, sub.ID,
		[]model.SubscriptionStatus{model.SubscriptionStatusActive},
		model.SubscriptionStatusPastDue)
	if err != nil {
		return nil, err
	}
	if !ok {
		*outcome = OutcomeNoop
		return nil, nil
	}
	// Failed charge pulls the listing immediately; no grace for unpaid periods.
	if sub.ListingID != nil {
		if err := u.listings.SetActive(ctx, tx, *sub.ListingID, false, nil); err != nil {
			return nil, err
		}
	}
	return []pendingNotice{{
		ownerID: sub.OwnerID,
		kind:    adapter.NotifyChargeFailed,
		meta:    map[string]string{"subscription_id": sub.ID},
	}}, nil
}
