package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"example.com/gem-checkout/internal/domain"
)

// adminClient — HTTP реализация AdminClient.
type adminClient struct {
	doer *httpDoer
}

// NewAdminClient создаёт клиент административного API платформы.
func NewAdminClient(cfg ClientConfig) AdminClient {
	return &adminClient{doer: newHTTPDoer(cfg, "admin")}
}

// =============================================================================
// Wire-структуры административного API
// =============================================================================

type productWire struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (w *productWire) toDomain() *Product {
	return &Product{ID: w.ID, Title: w.Title, Status: w.Status}
}

type variantWire struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
}

func (w *variantWire) toDomain() (*Variant, error) {
	price, err := domain.ParseMoney(w.Price, w.Currency)
	if err != nil {
		return nil, fmt.Errorf("цена варианта %s: %w", w.ID, err)
	}
	return &Variant{
		ID:        w.ID,
		ProductID: w.ProductID,
		SKU:       w.SKU,
		Title:     w.Title,
		Price:     price,
	}, nil
}

type variantInputWire struct {
	SKU         string `json:"sku"`
	OptionValue string `json:"option_value,omitempty"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
}

func variantInputToWire(input VariantInput) variantInputWire {
	return variantInputWire{
		SKU:         input.SKU,
		OptionValue: input.OptionValue,
		Price:       input.Price.Decimal(),
		Currency:    input.Price.Currency,
	}
}

type metafieldWire struct {
	ID        string `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type,omitempty"`
	Value     string `json:"value"`
}

func metafieldInputsToWire(inputs []MetafieldInput) []metafieldWire {
	wires := make([]metafieldWire, len(inputs))
	for i, in := range inputs {
		wires[i] = metafieldWire{
			Namespace: in.Namespace,
			Key:       in.Key,
			Type:      in.Type,
			Value:     in.Value,
		}
	}
	return wires
}

// =============================================================================
// Товары и варианты
// =============================================================================

// FindProductByMetafield ищет товар по значению метаполя.
func (c *adminClient) FindProductByMetafield(ctx context.Context, namespace, key, value string) (*Product, error) {
	q := url.Values{}
	q.Set("namespace", namespace)
	q.Set("key", key)
	q.Set("value", value)

	var resp struct {
		Product *productWire `json:"product"`
	}
	if err := c.doer.do(ctx, "FindProductByMetafield", http.MethodGet, "/products/lookup?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, &Error{Kind: KindNotFound, Op: "admin.FindProductByMetafield", Message: "товар не найден"}
	}
	return resp.Product.toDomain(), nil
}

// FindProductByTitle ищет товар по точному заголовку.
func (c *adminClient) FindProductByTitle(ctx context.Context, title string) (*Product, error) {
	q := url.Values{}
	q.Set("title", title)

	var resp struct {
		Products []productWire `json:"products"`
	}
	if err := c.doer.do(ctx, "FindProductByTitle", http.MethodGet, "/products?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Products {
		if resp.Products[i].Title == title {
			return resp.Products[i].toDomain(), nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Op: "admin.FindProductByTitle", Message: "товар не найден"}
}

// FindVariantBySKU ищет вариант товара по SKU.
func (c *adminClient) FindVariantBySKU(ctx context.Context, productID, sku string) (*Variant, error) {
	q := url.Values{}
	q.Set("sku", sku)

	var resp struct {
		Variants []variantWire `json:"variants"`
	}
	path := "/products/" + url.PathEscape(productID) + "/variants?" + q.Encode()
	if err := c.doer.do(ctx, "FindVariantBySKU", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Variants {
		if resp.Variants[i].SKU == sku {
			return resp.Variants[i].toDomain()
		}
	}
	return nil, &Error{Kind: KindNotFound, Op: "admin.FindVariantBySKU", Message: "вариант не найден"}
}

// CreateVariant создаёт вариант у существующего товара.
func (c *adminClient) CreateVariant(ctx context.Context, productID string, input VariantInput) (*Variant, error) {
	body := map[string]any{"variant": variantInputToWire(input)}

	var resp struct {
		Variant variantWire `json:"variant"`
	}
	path := "/products/" + url.PathEscape(productID) + "/variants"
	if err := c.doer.do(ctx, "CreateVariant", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.Variant.toDomain()
}

// UpdateVariant обновляет цену/SKU существующего варианта.
func (c *adminClient) UpdateVariant(ctx context.Context, variantID string, input VariantInput) (*Variant, error) {
	body := map[string]any{"variant": variantInputToWire(input)}

	var resp struct {
		Variant variantWire `json:"variant"`
	}
	path := "/variants/" + url.PathEscape(variantID)
	if err := c.doer.do(ctx, "UpdateVariant", http.MethodPut, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.Variant.toDomain()
}

// SetInventory выставляет доступный остаток варианта.
func (c *adminClient) SetInventory(ctx context.Context, variantID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	path := "/variants/" + url.PathEscape(variantID) + "/inventory"
	return c.doer.do(ctx, "SetInventory", http.MethodPost, path, body, nil)
}

// PublishProduct публикует товар в канал продаж.
func (c *adminClient) PublishProduct(ctx context.Context, productID, channelID string) error {
	body := map[string]any{"channel_id": channelID}
	path := "/products/" + url.PathEscape(productID) + "/publications"
	return c.doer.do(ctx, "PublishProduct", http.MethodPost, path, body, nil)
}

// SetMetafields записывает метаполя на объект платформы.
func (c *adminClient) SetMetafields(ctx context.Context, ownerID string, metafields []MetafieldInput) error {
	body := map[string]any{
		"owner_id":   ownerID,
		"metafields": metafieldInputsToWire(metafields),
	}
	return c.doer.do(ctx, "SetMetafields", http.MethodPost, "/metafields", body, nil)
}

// =============================================================================
// Заказы, транзакции, платёжные ссылки
// =============================================================================

// CreateDraftOrder создаёт предварительный заказ.
func (c *adminClient) CreateDraftOrder(ctx context.Context, input DraftOrderInput) (*DraftOrder, error) {
	lines := make([]map[string]any, len(input.Lines))
	for i, line := range input.Lines {
		lines[i] = map[string]any{
			"variant_id": line.VariantID,
			"quantity":   line.Quantity,
		}
	}
	body := map[string]any{
		"draft_order": map[string]any{
			"lines":      lines,
			"metafields": metafieldInputsToWire(input.Metafields),
			"note":       input.Note,
		},
	}

	var resp struct {
		DraftOrder struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"draft_order"`
	}
	if err := c.doer.do(ctx, "CreateDraftOrder", http.MethodPost, "/draft_orders", body, &resp); err != nil {
		return nil, err
	}
	return &DraftOrder{ID: resp.DraftOrder.ID, Status: resp.DraftOrder.Status}, nil
}

// CompleteDraftOrder превращает предварительный заказ в реальный.
func (c *adminClient) CompleteDraftOrder(ctx context.Context, draftOrderID string) (*Order, error) {
	var resp struct {
		Order struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"order"`
	}
	path := "/draft_orders/" + url.PathEscape(draftOrderID) + "/complete"
	if err := c.doer.do(ctx, "CompleteDraftOrder", http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &Order{ID: resp.Order.ID, Name: resp.Order.Name, Status: resp.Order.Status}, nil
}

// CreateTransaction записывает транзакцию в леджер заказа.
func (c *adminClient) CreateTransaction(ctx context.Context, orderID string, input TransactionInput) (*Transaction, error) {
	body := map[string]any{
		"transaction": map[string]any{
			"kind":     input.Kind,
			"amount":   input.Amount.Decimal(),
			"currency": input.Amount.Currency,
			"gateway":  input.Gateway,
		},
	}

	var resp struct {
		Transaction struct {
			ID     string `json:"id"`
			Kind   string `json:"kind"`
			Status string `json:"status"`
		} `json:"transaction"`
	}
	path := "/orders/" + url.PathEscape(orderID) + "/transactions"
	if err := c.doer.do(ctx, "CreateTransaction", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &Transaction{ID: resp.Transaction.ID, Kind: resp.Transaction.Kind, Status: resp.Transaction.Status}, nil
}

// GetOrderMetafields возвращает метаполя заказа.
func (c *adminClient) GetOrderMetafields(ctx context.Context, orderID string) ([]Metafield, error) {
	var resp struct {
		Metafields []metafieldWire `json:"metafields"`
	}
	path := "/orders/" + url.PathEscape(orderID) + "/metafields"
	if err := c.doer.do(ctx, "GetOrderMetafields", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]Metafield, len(resp.Metafields))
	for i, mf := range resp.Metafields {
		result[i] = Metafield{
			ID:        mf.ID,
			Namespace: mf.Namespace,
			Key:       mf.Key,
			Type:      mf.Type,
			Value:     mf.Value,
		}
	}
	return result, nil
}

// CreatePaymentLink создаёт платёжную ссылку на указанную сумму.
func (c *adminClient) CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error) {
	body := map[string]any{
		"payment_link": map[string]any{
			"order_id":    input.OrderID,
			"amount":      input.Amount.Decimal(),
			"currency":    input.Amount.Currency,
			"description": input.Description,
		},
	}

	var resp struct {
		PaymentLink struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"payment_link"`
	}
	if err := c.doer.do(ctx, "CreatePaymentLink", http.MethodPost, "/payment_links", body, &resp); err != nil {
		return nil, err
	}
	return &PaymentLink{ID: resp.PaymentLink.ID, URL: resp.PaymentLink.URL}, nil
}
