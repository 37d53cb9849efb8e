package model

import (
	"fmt"
	"time"
)

// EventType enumerates the provider webhook events this system models.
type EventType string

const (
	EventAgreementActivated EventType = "recurring.agreement-activated.v1"
	EventAgreementStopped   EventType = "recurring.agreement-stopped.v1"
	EventAgreementExpired   EventType = "recurring.agreement-expired.v1"
	EventAgreementRejected  EventType = "recurring.agreement-rejected.v1"
	EventChargeCaptured     EventType = "recurring.charge-captured.v1"
	EventChargeFailed       EventType = "recurring.charge-failed.v1"
)

// PaymentEvent is one row of the idempotency ledger. ProviderEventID is unique;
// a redelivery carrying the same id must be a no-op.
type PaymentEvent struct {
	ID              string // ULID
	ProviderEventID string
	EventType       EventType
	Payload         []byte // raw verified body, kept opaque
	ProcessedAt     time.Time
}

// WebhookEvent is the parsed, signature-verified payload handed to the
// reconciler. Exactly one of AgreementID/ChargeID identifies the subject;
// AgreementID is always expected for the event types above.
type WebhookEvent struct {
	ProviderEventID string    `json:"eventId"`
	EventType       EventType `json:"eventType"`
	AgreementID     string    `json:"agreementId"`
	ChargeID        string    `json:"chargeId"`
	OccurredAt      time.Time `json:"occurred"`
	Raw             []byte    `json:"-"`
}

// DerivedEventID returns a stable id for the ledger: the provider's own event
// id when present, otherwise a composite of subject, type and occurrence time.
// Empty return means the event is unidentifiable and must not be applied.
func (e *WebhookEvent) DerivedEventID() string {
	if e.ProviderEventID != "" {
		return e.ProviderEventID
	}
	subject := e.AgreementID
	if subject == "" {
		subject = e.ChargeID
	}
	if subject == "" || e.EventType == "" || e.OccurredAt.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", subject, e.EventType, e.OccurredAt.UTC().Format(time.RFC3339))
}
