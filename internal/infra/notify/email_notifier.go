package notify

import (
	"context"

	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*EmailNotifier)(nil)

// EmailNotifier is the stand-in mail sink. Message content and transport live
// with the marketplace side; billing only records what should be sent.
type EmailNotifier struct {
	log *zerolog.Logger
}

func NewEmailNotifier(logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{log: logger}
}

func (n *EmailNotifier) Notify(ctx context.Context, ownerID string, kind adapter.NotificationKind, meta map[string]string) error {
	evt := n.log.Info().Str("owner_id", ownerID).Str("kind", string(kind))
	for k, v := range meta {
		evt = evt.Str(k, v)
	}
	evt.Msg("owner notification queued")
	return nil
}
