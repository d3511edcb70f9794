package platform

import (
	"context"
	"fmt"
	"net/http"

	"example.com/gem-checkout/internal/domain"
)

// storefrontClient — HTTP реализация StorefrontClient.
type storefrontClient struct {
	doer *httpDoer
}

// NewStorefrontClient создаёт клиент публичного API платформы.
func NewStorefrontClient(cfg ClientConfig) StorefrontClient {
	return &storefrontClient{doer: newHTTPDoer(cfg, "storefront")}
}

// CreateCart создаёт корзину с указанными строками.
// Если публичный каталог ещё не видит только что созданный вариант,
// возвращается ошибка с Kind == KindNotYetVisible — повтором занимается
// вызывающая сторона (Cart Bridge).
func (c *storefrontClient) CreateCart(ctx context.Context, lines []CartLineInput) (*Cart, error) {
	wireLines := make([]map[string]any, len(lines))
	for i, line := range lines {
		wireLines[i] = map[string]any{
			"merchandise_id": line.MerchandiseID,
			"quantity":       line.Quantity,
			"attributes":     line.Attributes,
		}
	}
	body := map[string]any{"lines": wireLines}

	var resp struct {
		Cart struct {
			ID          string `json:"id"`
			CheckoutURL string `json:"checkout_url"`
			TotalAmount string `json:"total_amount"`
			Currency    string `json:"currency"`
			Lines       []struct {
				ID            string `json:"id"`
				MerchandiseID string `json:"merchandise_id"`
				Quantity      int32  `json:"quantity"`
			} `json:"lines"`
		} `json:"cart"`
	}
	if err := c.doer.do(ctx, "CreateCart", http.MethodPost, "/cart", body, &resp); err != nil {
		return nil, err
	}

	total, err := domain.ParseMoney(resp.Cart.TotalAmount, resp.Cart.Currency)
	if err != nil {
		return nil, fmt.Errorf("сумма корзины %s: %w", resp.Cart.ID, err)
	}

	cart := &Cart{
		ID:          resp.Cart.ID,
		CheckoutURL: resp.Cart.CheckoutURL,
		TotalAmount: total,
		Lines:       make([]CartLine, len(resp.Cart.Lines)),
	}
	for i, line := range resp.Cart.Lines {
		cart.Lines[i] = CartLine{
			ID:            line.ID,
			MerchandiseID: line.MerchandiseID,
			Quantity:      line.Quantity,
		}
	}

	return cart, nil
}
