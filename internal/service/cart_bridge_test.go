package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/platform"
)

// newTestBridge создаёт мост с мгновенным sleep и счётчиком пауз.
func newTestBridge(storefront platform.StorefrontClient) (*cartBridge, *int) {
	sleeps := 0
	bridge := &cartBridge{
		storefront: storefront,
		sleep: func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		},
	}
	return bridge, &sleeps
}

func notYetVisibleErr() *platform.Error {
	return &platform.Error{
		Kind:    platform.KindNotYetVisible,
		Op:      "storefront.CreateCart",
		Message: "The merchandise with id var-1 does not exist.",
	}
}

// =====================================
// Тесты AddVariantToCart
// =====================================

func TestAddVariantToCart_SuccessFirstAttempt(t *testing.T) {
	storefront := new(MockStorefrontClient)
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(&platform.Cart{ID: "cart-1", CheckoutURL: "https://shop.example.com/checkout/cart-1"}, nil)

	bridge, sleeps := newTestBridge(storefront)

	cart, err := bridge.AddVariantToCart(context.Background(), "var-1", 1, map[string]string{"session_id": "sess-1"})

	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, 0, *sleeps)
	storefront.AssertNumberOfCalls(t, "CreateCart", 1)
}

func TestAddVariantToCart_RetriesWhileNotYetVisible(t *testing.T) {
	storefront := new(MockStorefrontClient)
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(nil, notYetVisibleErr()).Twice()
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(&platform.Cart{ID: "cart-1"}, nil).Once()

	bridge, sleeps := newTestBridge(storefront)

	cart, err := bridge.AddVariantToCart(context.Background(), "var-1", 1, nil)

	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, 2, *sleeps)
	storefront.AssertNumberOfCalls(t, "CreateCart", 3)
}

// TestAddVariantToCart_RetryCeiling проверяет потолок повторов:
// ровно 3 попытки, затем исходная ошибка отставания каталога.
func TestAddVariantToCart_RetryCeiling(t *testing.T) {
	storefront := new(MockStorefrontClient)
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(nil, notYetVisibleErr())

	bridge, sleeps := newTestBridge(storefront)

	_, err := bridge.AddVariantToCart(context.Background(), "var-1", 1, nil)

	require.Error(t, err)
	assert.True(t, platform.IsNotYetVisible(err), "ошибка должна остаться ошибкой отставания каталога")
	assert.Equal(t, 2, *sleeps, "пауза только между попытками")
	storefront.AssertNumberOfCalls(t, "CreateCart", 3)
}

// TestAddVariantToCart_NoRetryOnRejection проверяет немедленный возврат
// любой другой ошибки без повторов.
func TestAddVariantToCart_NoRetryOnRejection(t *testing.T) {
	storefront := new(MockStorefrontClient)
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(nil, &platform.Error{Kind: platform.KindRejected, Op: "storefront.CreateCart", Message: "Out of stock"})

	bridge, sleeps := newTestBridge(storefront)

	_, err := bridge.AddVariantToCart(context.Background(), "var-1", 1, nil)

	require.Error(t, err)
	assert.True(t, platform.IsRejected(err))
	assert.Equal(t, 0, *sleeps)
	storefront.AssertNumberOfCalls(t, "CreateCart", 1)
}

func TestAddVariantToCart_ContextCancelledDuringDelay(t *testing.T) {
	storefront := new(MockStorefrontClient)
	storefront.On("CreateCart", mock.Anything, mock.Anything).
		Return(nil, notYetVisibleErr())

	bridge := &cartBridge{
		storefront: storefront,
		sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}

	_, err := bridge.AddVariantToCart(context.Background(), "var-1", 1, nil)

	assert.ErrorIs(t, err, context.Canceled)
	storefront.AssertNumberOfCalls(t, "CreateCart", 1)
}

// =====================================
// Тесты CreateCartWithLines
// =====================================

func TestCreateCartWithLines_PassesAllLines(t *testing.T) {
	storefront := new(MockStorefrontClient)
	lines := []platform.CartLineInput{
		{MerchandiseID: "var-1", Quantity: 1},
		{MerchandiseID: "var-2", Quantity: 2},
	}
	storefront.On("CreateCart", mock.Anything, lines).
		Return(&platform.Cart{ID: "cart-1"}, nil)

	bridge, _ := newTestBridge(storefront)

	cart, err := bridge.CreateCartWithLines(context.Background(), lines)

	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	storefront.AssertExpectations(t)
}
