// Package testutil содержит общие моки и утилиты для тестирования.
// Моки вынесены сюда для избежания дублирования (DRY).
// ВАЖНО: этот пакет НЕ должен импортировать service (circular dependency).
package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/pkg/outbox"
)

// =============================================================================
// MockAdminClient — мок для platform.AdminClient
// =============================================================================

// MockAdminClient — мок административного API платформы.
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) FindProductByMetafield(ctx context.Context, namespace, key, value string) (*platform.Product, error) {
	args := m.Called(ctx, namespace, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Product), args.Error(1)
}

func (m *MockAdminClient) FindProductByTitle(ctx context.Context, title string) (*platform.Product, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Product), args.Error(1)
}

func (m *MockAdminClient) FindVariantBySKU(ctx context.Context, productID, sku string) (*platform.Variant, error) {
	args := m.Called(ctx, productID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Variant), args.Error(1)
}

func (m *MockAdminClient) CreateVariant(ctx context.Context, productID string, input platform.VariantInput) (*platform.Variant, error) {
	args := m.Called(ctx, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Variant), args.Error(1)
}

func (m *MockAdminClient) UpdateVariant(ctx context.Context, variantID string, input platform.VariantInput) (*platform.Variant, error) {
	args := m.Called(ctx, variantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Variant), args.Error(1)
}

func (m *MockAdminClient) SetInventory(ctx context.Context, variantID string, quantity int) error {
	return m.Called(ctx, variantID, quantity).Error(0)
}

func (m *MockAdminClient) PublishProduct(ctx context.Context, productID, channelID string) error {
	return m.Called(ctx, productID, channelID).Error(0)
}

func (m *MockAdminClient) SetMetafields(ctx context.Context, ownerID string, metafields []platform.MetafieldInput) error {
	return m.Called(ctx, ownerID, metafields).Error(0)
}

func (m *MockAdminClient) CreateDraftOrder(ctx context.Context, input platform.DraftOrderInput) (*platform.DraftOrder, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.DraftOrder), args.Error(1)
}

func (m *MockAdminClient) CompleteDraftOrder(ctx context.Context, draftOrderID string) (*platform.Order, error) {
	args := m.Called(ctx, draftOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Order), args.Error(1)
}

func (m *MockAdminClient) CreateTransaction(ctx context.Context, orderID string, input platform.TransactionInput) (*platform.Transaction, error) {
	args := m.Called(ctx, orderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Transaction), args.Error(1)
}

func (m *MockAdminClient) GetOrderMetafields(ctx context.Context, orderID string) ([]platform.Metafield, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.Metafield), args.Error(1)
}

func (m *MockAdminClient) CreatePaymentLink(ctx context.Context, input platform.PaymentLinkInput) (*platform.PaymentLink, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.PaymentLink), args.Error(1)
}

// =============================================================================
// MockStorefrontClient — мок для platform.StorefrontClient
// =============================================================================

// MockStorefrontClient — мок публичного API платформы.
type MockStorefrontClient struct {
	mock.Mock
}

func (m *MockStorefrontClient) CreateCart(ctx context.Context, lines []platform.CartLineInput) (*platform.Cart, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Cart), args.Error(1)
}

// =============================================================================
// MockPlanRepository — мок для repository.PlanRepository
// =============================================================================

// MockPlanRepository — мок репозитория планов рассрочки.
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetByID(ctx context.Context, planID string) (*domain.DepositPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositPlan), args.Error(1)
}

func (m *MockPlanRepository) GetDefault(ctx context.Context) (*domain.DepositPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositPlan), args.Error(1)
}

func (m *MockPlanRepository) ListActive(ctx context.Context) ([]*domain.DepositPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DepositPlan), args.Error(1)
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *domain.DepositPlan) error {
	return m.Called(ctx, plan).Error(0)
}

// =============================================================================
// MockSessionRepository — мок для repository.SessionRepository
// =============================================================================

// MockSessionRepository — мок репозитория депозитных сессий.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateWithSchedule(ctx context.Context, session *domain.DepositSession, event *outbox.Outbox) error {
	return m.Called(ctx, session, event).Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.DepositSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositSession), args.Error(1)
}

func (m *MockSessionRepository) GetByDraftOrderID(ctx context.Context, draftOrderID string) (*domain.DepositSession, error) {
	args := m.Called(ctx, draftOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositSession), args.Error(1)
}

func (m *MockSessionRepository) MarkDepositPaid(ctx context.Context, sessionID string, paidAt time.Time) error {
	return m.Called(ctx, sessionID, paidAt).Error(0)
}

func (m *MockSessionRepository) MarkFullyPaid(ctx context.Context, sessionID string, paidAt time.Time) error {
	return m.Called(ctx, sessionID, paidAt).Error(0)
}

// =============================================================================
// MockCartRepository — мок для repository.CartRepository
// =============================================================================

// MockCartRepository — мок репозитория корзин.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) AddItem(ctx context.Context, cartID, customerID string, item domain.CartItem) (*domain.Cart, error) {
	args := m.Called(ctx, cartID, customerID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, variantID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

// =============================================================================
// MockStoneRepository — мок для repository.StoneRepository
// =============================================================================

// MockStoneRepository — мок зеркала атрибутов камней.
type MockStoneRepository struct {
	mock.Mock
}

func (m *MockStoneRepository) Upsert(ctx context.Context, item *domain.CatalogItem, productID, variantID string) error {
	return m.Called(ctx, item, productID, variantID).Error(0)
}
