package billing_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/t333watch/t333watch/svc/analytics"
	"github.com/t333watch/t333watch/svc/billing"
	"github.com/t333watch/t333watch/svc/user"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUsers) GetByTwitchID(ctx context.Context, twitchID string) (user.User, error) {
	args := m.Called(ctx, twitchID)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUsers) GetByCustomerID(ctx context.Context, customerID string) (user.User, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUsers) Upsert(ctx context.Context, p user.Profile) (user.User, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUsers) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	return m.Called(ctx, id, premium).Error(0)
}

func (m *mockUsers) SetCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

func (m *mockUsers) SetTokens(ctx context.Context, id uuid.UUID, access, refresh string) error {
	return m.Called(ctx, id, access, refresh).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Name() string            { return "mock" }
func (m *mockProvider) SignatureHeader() string { return "Mock-Signature" }

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.WebhookEvent, error) {
	args := m.Called(ctx, payload, signature)
	ev, _ := args.Get(0).(*billing.WebhookEvent)
	return ev, args.Error(1)
}

func (m *mockProvider) PriceID(plan billing.Plan) (string, error) {
	args := m.Called(plan)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCustomer(ctx context.Context, req billing.CustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*billing.CheckoutSession)
	return s, args.Error(1)
}

func (m *mockProvider) ActiveSubscriptions(ctx context.Context, customerID string) ([]billing.Subscription, error) {
	args := m.Called(ctx, customerID)
	subs, _ := args.Get(0).([]billing.Subscription)
	return subs, args.Error(1)
}

func (m *mockProvider) CancelSubscription(ctx context.Context, id string, immediate bool) (*billing.Subscription, error) {
	args := m.Called(ctx, id, immediate)
	s, _ := args.Get(0).(*billing.Subscription)
	return s, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) PremiumActivated(ctx context.Context, u user.User, plan string) {
	m.Called(ctx, u, plan)
}

func (m *mockNotifier) SubscriptionCanceled(ctx context.Context, u user.User, message string) {
	m.Called(ctx, u, message)
}

// events captures recorded analytics.
type events struct {
	mu  sync.Mutex
	all []analytics.Event
}

func (e *events) Record(_ context.Context, ev analytics.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, ev)
}

func (e *events) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.all))
	for _, ev := range e.all {
		out = append(out, ev.Name)
	}
	return out
}
