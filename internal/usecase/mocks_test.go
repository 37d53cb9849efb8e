//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/domain/ports/repository"
)

func now() time.Time { return time.Now().Truncate(time.Millisecond) }

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX unless overridden.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock SubscriptionRepository ----

// MockSubscriptionRepo keeps subscriptions in memory and honors the guarded
// update semantics of the real repository. Individual methods can be
// overridden through the *Func fields.
type MockSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription

	SaveFunc                    func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	UpdateStatusIfFunc          func(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus) (bool, error)
	UpdateStatusAndPeriodIfFunc func(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus, periodStart, periodEnd time.Time) (bool, error)
	CountByDiscountCodeFunc     func(ctx context.Context, tx repository.Tx, code string) (int, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.ID != s.ID && other.OwnerID == s.OwnerID && other.IsLive() && s.IsLive() &&
			other.ListingID != nil && s.ListingID != nil && *other.ListingID == *s.ListingID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByAgreementID(ctx context.Context, tx repository.Tx, agreementID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.ProviderAgreementID != nil && *s.ProviderAgreementID == agreementID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindLiveByOwnerAndListing(ctx context.Context, tx repository.Tx, ownerID, listingID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.OwnerID == ownerID && s.ListingID != nil && *s.ListingID == listingID && s.IsLive() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok || !statusIn(s.Status, from) {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockSubscriptionRepo) UpdateStatusAndPeriodIf(ctx context.Context, tx repository.Tx, id string, from []model.SubscriptionStatus, to model.SubscriptionStatus, periodStart, periodEnd time.Time) (bool, error) {
	if m.UpdateStatusAndPeriodIfFunc != nil {
		return m.UpdateStatusAndPeriodIfFunc(ctx, tx, id, from, to, periodStart, periodEnd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok || !statusIn(s.Status, from) {
		return false, nil
	}
	s.Status = to
	s.CurrentPeriodStart = periodStart
	s.CurrentPeriodEnd = periodEnd
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockSubscriptionRepo) CountByDiscountCode(ctx context.Context, tx repository.Tx, code string) (int, error) {
	if m.CountByDiscountCodeFunc != nil {
		return m.CountByDiscountCodeFunc(ctx, tx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store {
		if s.DiscountCode != nil && *s.DiscountCode == code {
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepo) ListLapsed(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if (s.Status == model.SubscriptionStatusCanceled || s.Status == model.SubscriptionStatusPastDue) &&
			s.CurrentPeriodEnd.Before(asOf) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func statusIn(s model.SubscriptionStatus, in []model.SubscriptionStatus) bool {
	for _, x := range in {
		if s == x {
			return true
		}
	}
	return false
}

// ---- Mock ListingRepository ----

type MockListingRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Listing

	SetActiveFunc func(ctx context.Context, tx repository.Tx, listingID string, active bool, subscriptionID *string) error
}

func NewMockListingRepo() *MockListingRepo {
	return &MockListingRepo{store: make(map[string]*model.Listing)}
}

var _ repository.ListingRepository = (*MockListingRepo)(nil)

func (m *MockListingRepo) Put(l *model.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.store[l.ID] = &cp
}

func (m *MockListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockListingRepo) SetActive(ctx context.Context, tx repository.Tx, listingID string, active bool, subscriptionID *string) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, tx, listingID, active, subscriptionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.store[listingID]
	if !ok {
		return domain.ErrNotFound
	}
	l.IsActive = active
	if subscriptionID != nil {
		l.SubscriptionID = subscriptionID
	}
	return nil
}

// ---- Mock DiscountCodeRepository ----

type MockDiscountCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.DiscountCode

	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.DiscountCode, error)
}

func NewMockDiscountCodeRepo() *MockDiscountCodeRepo {
	return &MockDiscountCodeRepo{store: make(map[string]*model.DiscountCode)}
}

var _ repository.DiscountCodeRepository = (*MockDiscountCodeRepo)(nil)

func (m *MockDiscountCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.DiscountCode, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MockDiscountCodeRepo) Save(ctx context.Context, tx repository.Tx, d *model.DiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.Code = model.NormalizeCode(d.Code)
	m.store[cp.Code] = &cp
	return nil
}

// ---- Mock PaymentEventRepository ----

type MockPaymentEventRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentEvent

	InsertIfAbsentFunc func(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) (bool, error)
}

func NewMockPaymentEventRepo() *MockPaymentEventRepo {
	return &MockPaymentEventRepo{store: make(map[string]*model.PaymentEvent)}
}

var _ repository.PaymentEventRepository = (*MockPaymentEventRepo)(nil)

func (m *MockPaymentEventRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) (bool, error) {
	if m.InsertIfAbsentFunc != nil {
		return m.InsertIfAbsentFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[e.ProviderEventID]; ok {
		return false, nil
	}
	cp := *e
	m.store[e.ProviderEventID] = &cp
	return true, nil
}

func (m *MockPaymentEventRepo) FindByProviderEventID(ctx context.Context, tx repository.Tx, providerEventID string) (*model.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[providerEventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ---- Mock PaymentProvider ----

type MockPaymentProvider struct {
	mu           sync.Mutex
	CreateCalls  []adapter.AgreementRequest
	CancelCalls  []string
	nextAgreeSeq int

	CreateAgreementFunc func(ctx context.Context, req adapter.AgreementRequest) (adapter.AgreementRef, error)
	CancelAgreementFunc func(ctx context.Context, agreementID string) error
}

var _ adapter.PaymentProvider = (*MockPaymentProvider)(nil)

func (m *MockPaymentProvider) Name() string { return "mock" }

func (m *MockPaymentProvider) CreateAgreement(ctx context.Context, req adapter.AgreementRequest) (adapter.AgreementRef, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, req)
	m.nextAgreeSeq++
	id := m.nextAgreeSeq
	m.mu.Unlock()
	if m.CreateAgreementFunc != nil {
		return m.CreateAgreementFunc(ctx, req)
	}
	return adapter.AgreementRef{
		AgreementID: fmt.Sprintf("agr-%d", id),
		RedirectURL: "https://pay.example/approve",
	}, nil
}

func (m *MockPaymentProvider) CancelAgreement(ctx context.Context, agreementID string) error {
	m.mu.Lock()
	m.CancelCalls = append(m.CancelCalls, agreementID)
	m.mu.Unlock()
	if m.CancelAgreementFunc != nil {
		return m.CancelAgreementFunc(ctx, agreementID)
	}
	return nil
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []MockNotification

	NotifyFunc func(ctx context.Context, ownerID string, kind adapter.NotificationKind, meta map[string]string) error
}

type MockNotification struct {
	OwnerID string
	Kind    adapter.NotificationKind
	Meta    map[string]string
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, ownerID string, kind adapter.NotificationKind, meta map[string]string) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, ownerID, kind, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, MockNotification{OwnerID: ownerID, Kind: kind, Meta: meta})
	return nil
}
