package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClient — административный API платформы: товары, варианты,
// метаполя, предварительные заказы, транзакции, платёжные ссылки.
type AdminClient interface {
	// FindProductByMetafield ищет товар по значению метаполя.
	FindProductByMetafield(ctx context.Context, namespace, key, value string) (*Product, error)

	// FindProductByTitle ищет товар по точному заголовку.
	FindProductByTitle(ctx context.Context, title string) (*Product, error)

	// FindVariantBySKU ищет вариант товара по SKU.
	// Возвращает ошибку KindNotFound, если вариант отсутствует.
	FindVariantBySKU(ctx context.Context, productID, sku string) (*Variant, error)

	// CreateVariant создаёт вариант у существующего товара.
	CreateVariant(ctx context.Context, productID string, input VariantInput) (*Variant, error)

	// UpdateVariant обновляет цену/SKU существующего варианта.
	UpdateVariant(ctx context.Context, variantID string, input VariantInput) (*Variant, error)

	// SetInventory выставляет доступный остаток варианта.
	SetInventory(ctx context.Context, variantID string, quantity int) error

	// PublishProduct публикует товар в канал продаж.
	PublishProduct(ctx context.Context, productID, channelID string) error

	// SetMetafields записывает метаполя на объект платформы.
	SetMetafields(ctx context.Context, ownerID string, metafields []MetafieldInput) error

	// CreateDraftOrder создаёт предварительный заказ.
	CreateDraftOrder(ctx context.Context, input DraftOrderInput) (*DraftOrder, error)

	// CompleteDraftOrder превращает предварительный заказ в реальный.
	CompleteDraftOrder(ctx context.Context, draftOrderID string) (*Order, error)

	// CreateTransaction записывает транзакцию в леджер заказа.
	CreateTransaction(ctx context.Context, orderID string, input TransactionInput) (*Transaction, error)

	// GetOrderMetafields возвращает метаполя заказа.
	GetOrderMetafields(ctx context.Context, orderID string) ([]Metafield, error)

	// CreatePaymentLink создаёт платёжную ссылку на указанную сумму.
	CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error)
}

// StorefrontClient — публичный API платформы.
// Читает из публичного каталога, который отстаёт от административных
// записей; ошибки отставания классифицируются как KindNotYetVisible.
type StorefrontClient interface {
	// CreateCart создаёт корзину с указанными строками.
	CreateCart(ctx context.Context, lines []CartLineInput) (*Cart, error)
}

// ClientConfig — настройки HTTP клиентов платформы.
type ClientConfig struct {
	BaseURL string        // Базовый URL API
	Token   string        // Токен доступа
	Timeout time.Duration // Таймаут HTTP клиента (по умолчанию 10s)
}

// httpDoer выполняет JSON запросы к платформе с единообразной
// классификацией ошибок на границе разбора ответа.
type httpDoer struct {
	baseURL string
	token   string
	client  *http.Client
	api     string // "admin" / "storefront" — префикс операции в ошибках
}

func newHTTPDoer(cfg ClientConfig, api string) *httpDoer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpDoer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		api:     api,
	}
}

// errorBody — формат тела ошибки платформы.
// errors — системные ошибки, user_errors — отклонённые мутации.
type errorBody struct {
	Errors     []string `json:"errors"`
	UserErrors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"user_errors"`
}

// do выполняет запрос и декодирует успешный ответ в out (если out != nil).
func (d *httpDoer) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: сериализация запроса: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: создание запроса: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Token", d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: d.op(op), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: d.op(op), Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return d.parseError(op, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: разбор ответа: %w", op, err)
		}
	}

	return nil
}

func (d *httpDoer) op(op string) string {
	return d.api + "." + op
}

// parseError классифицирует ошибку платформы.
// Единственное место, где анализируется текст ответа: дальше по коду
// ходит только типизированный Kind.
func (d *httpDoer) parseError(op string, status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	messages := make([]string, 0, len(eb.Errors)+len(eb.UserErrors))
	messages = append(messages, eb.Errors...)
	for _, ue := range eb.UserErrors {
		messages = append(messages, ue.Message)
	}

	message := strings.Join(messages, "; ")
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	kind := KindRejected
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindUnavailable
	case notYetVisibleMessage(message):
		kind = KindNotYetVisible
	}

	return &Error{Kind: kind, Op: d.op(op), Message: message}
}

// notYetVisibleMessage распознаёт формулировки платформы об отставании
// публичного каталога от административной записи.
func notYetVisibleMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "does not exist") ||
		strings.Contains(m, "merchandise not found")
}
