package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/gem-checkout/internal/catalog"
	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/repository"
	"example.com/gem-checkout/internal/service"
	"example.com/gem-checkout/pkg/logger"
)

// CartHandler — обработчик операций с корзиной.
type CartHandler struct {
	search       catalog.SearchClient
	materializer service.Materializer
	bridge       service.CartBridge
	carts        repository.CartRepository
	collection   string
}

// NewCartHandler создаёт обработчик корзины.
func NewCartHandler(
	search catalog.SearchClient,
	materializer service.Materializer,
	bridge service.CartBridge,
	carts repository.CartRepository,
	collection string,
) *CartHandler {
	return &CartHandler{
		search:       search,
		materializer: materializer,
		bridge:       bridge,
		carts:        carts,
		collection:   collection,
	}
}

// === Request/Response DTOs ===

// AddItemRequest — запрос на добавление позиции каталога в корзину.
type AddItemRequest struct {
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id"`
	ExternalID string `json:"external_id" binding:"required"`
	Quantity   int32  `json:"quantity"`
}

// MoneyResponse — денежная сумма в ответе.
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func moneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Decimal(), Currency: m.Currency}
}

// CartItemResponse — строка корзины в ответе.
type CartItemResponse struct {
	VariantID string        `json:"variant_id"`
	Title     string        `json:"title"`
	Quantity  int32         `json:"quantity"`
	Price     MoneyResponse `json:"price"`
}

// CartResponse — корзина в ответе.
type CartResponse struct {
	CartID      string             `json:"cart_id"`
	Items       []CartItemResponse `json:"items"`
	TotalAmount MoneyResponse      `json:"total_amount"`
}

func cartResponse(cart *domain.Cart) CartResponse {
	resp := CartResponse{
		CartID:      cart.ID,
		TotalAmount: moneyResponse(cart.TotalAmount),
		Items:       make([]CartItemResponse, len(cart.Items)),
	}
	for i, item := range cart.Items {
		resp.Items[i] = CartItemResponse{
			VariantID: item.VariantID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     moneyResponse(item.Price),
		}
	}
	return resp
}

// AddItemResponse — ответ на добавление позиции.
type AddItemResponse struct {
	Cart        CartResponse `json:"cart"`
	ProductID   string       `json:"product_id"`
	VariantID   string       `json:"variant_id"`
	CheckoutURL string       `json:"checkout_url"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// === Handlers ===

// AddItem добавляет позицию внешнего каталога в корзину.
// POST /api/v1/cart/items
//
// Позиция ищется в каталоге, материализуется на платформе,
// мостится в публичную корзину и сохраняется в корзине сервиса.
func (h *CartHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	doc, err := h.search.SearchByExternalID(ctx, req.ExternalID, h.collection)
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	item, err := catalog.ItemFromDocument(doc)
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	result, err := h.materializer.Materialize(ctx, item)
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	publicCart, err := h.bridge.AddVariantToCart(ctx, result.VariantID, req.Quantity, map[string]string{
		"external_id": item.ExternalID,
	})
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	cartID := req.CartID
	if cartID == "" {
		cartID = publicCart.ID
	}

	cart, err := h.carts.AddItem(ctx, cartID, req.CustomerID, domain.CartItem{
		VariantID: result.VariantID,
		Title:     item.Title,
		Quantity:  req.Quantity,
		Price:     item.Price,
	})
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	log.Info().
		Str("external_id", item.ExternalID).
		Str("variant_id", result.VariantID).
		Str("cart_id", cart.ID).
		Int("warnings", len(result.Warnings)).
		Msg("Позиция каталога добавлена в корзину")

	c.JSON(http.StatusOK, AddItemResponse{
		Cart:        cartResponse(cart),
		ProductID:   result.ProductID,
		VariantID:   result.VariantID,
		CheckoutURL: publicCart.CheckoutURL,
		Warnings:    result.Warnings,
	})
}

// GetCart возвращает корзину со строками.
// GET /api/v1/cart/:id
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "GetCart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cartResponse(cart)})
}

// RemoveItem удаляет строку корзины по варианту.
// DELETE /api/v1/cart/:id/items/:variant_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("variant_id"))
	if err != nil {
		HandleError(c, err, "RemoveItem")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cartResponse(cart)})
}
