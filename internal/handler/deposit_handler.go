package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/service"
	"example.com/gem-checkout/pkg/logger"
)

// DepositHandler — обработчик депозитных сессий и платежей рассрочки.
type DepositHandler struct {
	deposits service.DepositService
}

// NewDepositHandler создаёт обработчик депозитных сессий.
func NewDepositHandler(deposits service.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// === Request/Response DTOs ===

// CartLineRequest — строка корзины в запросе создания сессии.
type CartLineRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Title     string `json:"title"`
	Quantity  int32  `json:"quantity"`
	Price     string `json:"price" binding:"required"`
	Currency  string `json:"currency"`
}

// CreateSessionRequest — запрос на создание депозитной сессии.
// Lines и TotalAmount опциональны: при их отсутствии корзина
// загружается из хранилища по cart_id.
type CreateSessionRequest struct {
	CartID      string            `json:"cart_id" binding:"required"`
	CustomerID  string            `json:"customer_id"`
	PlanID      string            `json:"plan_id"`
	Lines       []CartLineRequest `json:"lines"`
	TotalAmount string            `json:"total_amount"`
	Currency    string            `json:"currency"`
}

// CreateSessionResponse — ответ на создание депозитной сессии.
type CreateSessionResponse struct {
	SessionID      string          `json:"session_id"`
	DraftOrderIDs  []string        `json:"draft_order_ids"`
	CheckoutURL    string          `json:"checkout_url"`
	PaymentAmounts []MoneyResponse `json:"payment_amounts"`
}

// ScheduleRowResponse — строка графика платежей в ответе.
type ScheduleRowResponse struct {
	Number       int           `json:"number"`
	Type         string        `json:"type"`
	Amount       MoneyResponse `json:"amount"`
	DraftOrderID string        `json:"draft_order_id"`
	CheckoutURL  string        `json:"checkout_url,omitempty"`
	Status       string        `json:"status"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
}

// SessionResponse — депозитная сессия в ответе.
type SessionResponse struct {
	SessionID         string                `json:"session_id"`
	CartID            string                `json:"cart_id"`
	CustomerID        string                `json:"customer_id,omitempty"`
	PlanID            string                `json:"plan_id"`
	Status            string                `json:"status"`
	TotalAmount       MoneyResponse         `json:"total_amount"`
	TotalInstallments int                   `json:"total_installments"`
	PaidInstallments  int                   `json:"paid_installments"`
	CheckoutURL       string                `json:"checkout_url,omitempty"`
	Schedule          []ScheduleRowResponse `json:"schedule"`
	CreatedAt         time.Time             `json:"created_at"`
	ExpiresAt         time.Time             `json:"expires_at"`
}

func sessionResponse(s *domain.DepositSession) SessionResponse {
	resp := SessionResponse{
		SessionID:         s.ID,
		CartID:            s.CartID,
		CustomerID:        s.CustomerID,
		PlanID:            s.PlanID,
		Status:            string(s.Status),
		TotalAmount:       moneyResponse(s.TotalAmount),
		TotalInstallments: s.TotalInstallments,
		PaidInstallments:  s.PaidInstallments,
		CheckoutURL:       s.CheckoutURL,
		Schedule:          make([]ScheduleRowResponse, len(s.Schedule)),
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
	}
	for i, row := range s.Schedule {
		resp.Schedule[i] = ScheduleRowResponse{
			Number:       row.Number,
			Type:         string(row.Type),
			Amount:       moneyResponse(row.Amount),
			DraftOrderID: row.DraftOrderID,
			CheckoutURL:  row.CheckoutURL,
			Status:       string(row.Status),
			PaidAt:       row.PaidAt,
		}
	}
	return resp
}

// CompleteResponse — ответ на завершение первого взноса.
type CompleteResponse struct {
	OrderID     string `json:"order_id"`
	PaymentLink string `json:"payment_link"`
}

// === Handlers ===

// CreateSession создаёт депозитную сессию с графиком платежей.
// POST /api/v1/deposit-sessions
func (h *DepositHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	input := service.CreateSessionInput{
		CartID:     req.CartID,
		CustomerID: req.CustomerID,
		PlanID:     req.PlanID,
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	if req.TotalAmount != "" {
		total, err := domain.ParseMoney(req.TotalAmount, currency)
		if err != nil {
			BadRequest(c, err)
			return
		}
		input.TotalAmount = &total
	}

	for _, line := range req.Lines {
		lineCurrency := line.Currency
		if lineCurrency == "" {
			lineCurrency = currency
		}
		price, err := domain.ParseMoney(line.Price, lineCurrency)
		if err != nil {
			BadRequest(c, err)
			return
		}
		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		input.Items = append(input.Items, domain.CartItem{
			VariantID: line.VariantID,
			Title:     line.Title,
			Quantity:  quantity,
			Price:     price,
		})
	}

	result, err := h.deposits.CreateDepositSession(ctx, input)
	if err != nil {
		HandleError(c, err, "CreateSession")
		return
	}

	amounts := make([]MoneyResponse, len(result.PaymentAmounts))
	for i, amount := range result.PaymentAmounts {
		amounts[i] = moneyResponse(amount)
	}

	log.Info().
		Str("session_id", result.SessionID).
		Str("cart_id", req.CartID).
		Int("installments", len(result.PaymentAmounts)).
		Msg("Депозитная сессия создана")

	c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID:      result.SessionID,
		DraftOrderIDs:  result.DraftOrderIDs,
		CheckoutURL:    result.CheckoutURL,
		PaymentAmounts: amounts,
	})
}

// GetSession возвращает депозитную сессию с графиком платежей.
// GET /api/v1/deposit-sessions/:id
func (h *DepositHandler) GetSession(c *gin.Context) {
	session, err := h.deposits.GetDepositSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "GetSession")
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// CompleteSession завершает первый взнос: превращает предварительный
// заказ в реальный и выдаёт платёжную ссылку на остаток.
// POST /api/v1/deposit-sessions/:id/complete
func (h *DepositHandler) CompleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	result, err := h.deposits.CompleteDepositOrder(ctx, sessionID)
	if err != nil {
		HandleError(c, err, "CompleteSession")
		return
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("session_id", sessionID).
		Str("order_id", result.OrderID).
		Msg("Первый взнос оплачен")

	c.JSON(http.StatusOK, CompleteResponse{
		OrderID:     result.OrderID,
		PaymentLink: result.PaymentLink,
	})
}

// CompleteRemaining записывает оплату остатка по заказу.
// POST /api/v1/orders/:id/remaining-payment
func (h *DepositHandler) CompleteRemaining(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	if err := h.deposits.CompleteRemainingPayment(ctx, orderID); err != nil {
		HandleError(c, err, "CompleteRemaining")
		return
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("order_id", orderID).
		Msg("Остаток по заказу оплачен")

	c.JSON(http.StatusOK, gin.H{"status": "fully_paid"})
}
