package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cabin-rental-billing/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PaymentProvider = (*NoopClient)(nil)

// NoopClient is the dev/test provider: no network, every call succeeds.
type NoopClient struct{}

func NewNoopClient() *NoopClient { return &NoopClient{} }

func (n *NoopClient) Name() string { return "noop" }

func (n *NoopClient) CreateAgreement(ctx context.Context, req adapter.AgreementRequest) (adapter.AgreementRef, error) {
	id := "noop-" + uuid.NewString()
	return adapter.AgreementRef{
		AgreementID: id,
		RedirectURL: fmt.Sprintf("https://example.invalid/approve/%s", id),
	}, nil
}

func (n *NoopClient) CancelAgreement(ctx context.Context, agreementID string) error {
	return nil
}
