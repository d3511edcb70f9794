package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/domain"
)

// =============================================================================
// Тесты классификации ошибок
// =============================================================================

func TestParseError_UserErrorsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_errors": []map[string]string{
				{"field": "sku", "message": "SKU already taken"},
				{"field": "price", "message": "Price must be positive"},
			},
		})
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	_, err := client.CreateVariant(context.Background(), "prod-1", VariantInput{
		SKU:   "EXT-42",
		Price: domain.Money{Currency: "USD", Amount: 100000},
	})

	require.Error(t, err)
	assert.True(t, IsRejected(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "admin.CreateVariant", pe.Op)
	assert.Equal(t, "SKU already taken; Price must be positive", pe.Message)
}

func TestParseError_NotYetVisible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_errors": []map[string]string{
				{"field": "lines", "message": "The merchandise with id var-9 does not exist."},
			},
		})
	}))
	defer server.Close()

	client := NewStorefrontClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	_, err := client.CreateCart(context.Background(), []CartLineInput{
		{MerchandiseID: "var-9", Quantity: 1},
	})

	require.Error(t, err)
	assert.True(t, IsNotYetVisible(err))
	assert.False(t, IsRejected(err))
}

func TestParseError_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	_, err := client.CompleteDraftOrder(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestParseError_ServerErrorUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	err := client.SetInventory(context.Background(), "var-1", 1)

	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindUnavailable, pe.Kind)
}

func TestParseError_ConnectionRefusedUnavailable(t *testing.T) {
	// Сервер закрыт до запроса
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	err := client.PublishProduct(context.Background(), "prod-1", "channel-1")

	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindUnavailable, pe.Kind)
}

// =============================================================================
// Тесты административного клиента
// =============================================================================

func TestAdminClient_FindVariantBySKU(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/prod-1/variants", r.URL.Path)
		assert.Equal(t, "EXT-42", r.URL.Query().Get("sku"))
		assert.Equal(t, "test-token", r.Header.Get("X-Access-Token"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"variants": []map[string]any{
				{
					"id":         "var-1",
					"product_id": "prod-1",
					"sku":        "EXT-42",
					"price":      "1500.00",
					"currency":   "USD",
				},
			},
		})
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	variant, err := client.FindVariantBySKU(context.Background(), "prod-1", "EXT-42")

	require.NoError(t, err)
	assert.Equal(t, "var-1", variant.ID)
	assert.Equal(t, "EXT-42", variant.SKU)
	assert.Equal(t, int64(150000), variant.Price.Amount)
	assert.Equal(t, "USD", variant.Price.Currency)
}

func TestAdminClient_FindVariantBySKU_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"variants": []any{}})
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	_, err := client.FindVariantBySKU(context.Background(), "prod-1", "EXT-404")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAdminClient_CreateVariant_SendsDecimalPrice(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"variant": map[string]any{
				"id":         "var-2",
				"product_id": "prod-1",
				"sku":        "EXT-7",
				"price":      "999.99",
				"currency":   "USD",
			},
		})
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	variant, err := client.CreateVariant(context.Background(), "prod-1", VariantInput{
		SKU:         "EXT-7",
		OptionValue: "7",
		Price:       domain.Money{Currency: "USD", Amount: 99999},
	})

	require.NoError(t, err)
	assert.Equal(t, "var-2", variant.ID)

	wire := received["variant"].(map[string]any)
	assert.Equal(t, "999.99", wire["price"])
	assert.Equal(t, "USD", wire["currency"])
}

func TestAdminClient_CreateTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-1/transactions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		tx := body["transaction"].(map[string]any)
		assert.Equal(t, "capture", tx["kind"])
		assert.Equal(t, "300.00", tx["amount"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"transaction": map[string]any{"id": "tx-1", "kind": "capture", "status": "success"},
		})
	}))
	defer server.Close()

	client := NewAdminClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	tx, err := client.CreateTransaction(context.Background(), "ord-1", TransactionInput{
		Kind:    TransactionKindCapture,
		Amount:  domain.Money{Currency: "USD", Amount: 30000},
		Gateway: "installments",
	})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "success", tx.Status)
}

// =============================================================================
// Тесты публичного клиента
// =============================================================================

func TestStorefrontClient_CreateCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"cart": map[string]any{
				"id":           "cart-1",
				"checkout_url": "https://shop.example.com/checkout/cart-1",
				"total_amount": "300.00",
				"currency":     "USD",
				"lines": []map[string]any{
					{"id": "line-1", "merchandise_id": "var-1", "quantity": 1},
				},
			},
		})
	}))
	defer server.Close()

	client := NewStorefrontClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})

	cart, err := client.CreateCart(context.Background(), []CartLineInput{
		{MerchandiseID: "var-1", Quantity: 1, Attributes: map[string]string{"session_id": "sess-1"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, "https://shop.example.com/checkout/cart-1", cart.CheckoutURL)
	assert.Equal(t, int64(30000), cart.TotalAmount.Amount)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "var-1", cart.Lines[0].MerchandiseID)
}
