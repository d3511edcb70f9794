package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/repository"
	"example.com/gem-checkout/pkg/logger"
)

// PlanHandler — обработчик планов рассрочки.
type PlanHandler struct {
	plans repository.PlanRepository
}

// NewPlanHandler создаёт обработчик планов рассрочки.
func NewPlanHandler(plans repository.PlanRepository) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// === Request/Response DTOs ===

// CreatePlanRequest — запрос на создание плана рассрочки.
type CreatePlanRequest struct {
	Name         string  `json:"name" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	Percentage   float64 `json:"percentage"`
	FixedAmount  string  `json:"fixed_amount"`
	Currency     string  `json:"currency"`
	Installments int     `json:"installments" binding:"required"`
	MinDeposit   string  `json:"min_deposit"`
	MaxDeposit   string  `json:"max_deposit"`
	IsDefault    bool    `json:"is_default"`
}

// PlanResponse — план рассрочки в ответе.
type PlanResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Percentage   float64        `json:"percentage,omitempty"`
	FixedAmount  *MoneyResponse `json:"fixed_amount,omitempty"`
	Installments int            `json:"installments"`
	MinDeposit   *MoneyResponse `json:"min_deposit,omitempty"`
	MaxDeposit   *MoneyResponse `json:"max_deposit,omitempty"`
	IsDefault    bool           `json:"is_default"`
	IsActive     bool           `json:"is_active"`
}

func planResponse(plan *domain.DepositPlan) PlanResponse {
	resp := PlanResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		Type:         string(plan.Type),
		Percentage:   plan.Percentage,
		Installments: plan.Installments,
		IsDefault:    plan.IsDefault,
		IsActive:     plan.IsActive,
	}
	if !plan.FixedAmount.IsZero() {
		m := moneyResponse(plan.FixedAmount)
		resp.FixedAmount = &m
	}
	if !plan.MinDeposit.IsZero() {
		m := moneyResponse(plan.MinDeposit)
		resp.MinDeposit = &m
	}
	if !plan.MaxDeposit.IsZero() {
		m := moneyResponse(plan.MaxDeposit)
		resp.MaxDeposit = &m
	}
	return resp
}

// === Handlers ===

// ListPlans возвращает активные планы рассрочки.
// GET /api/v1/deposit-plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.plans.ListActive(c.Request.Context())
	if err != nil {
		HandleError(c, err, "ListPlans")
		return
	}

	resp := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		resp[i] = planResponse(plan)
	}

	c.JSON(http.StatusOK, gin.H{"plans": resp})
}

// GetPlan возвращает план рассрочки по ID.
// GET /api/v1/deposit-plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.plans.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "GetPlan")
		return
	}

	c.JSON(http.StatusOK, planResponse(plan))
}

// CreatePlan создаёт план рассрочки. Административная операция.
// POST /api/v1/deposit-plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	plan := &domain.DepositPlan{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Type:         domain.PlanType(req.Type),
		Percentage:   req.Percentage,
		Installments: req.Installments,
		IsDefault:    req.IsDefault,
		IsActive:     true,
	}

	var err error
	if plan.FixedAmount, err = parseOptionalMoney(req.FixedAmount, currency); err != nil {
		BadRequest(c, err)
		return
	}
	if plan.MinDeposit, err = parseOptionalMoney(req.MinDeposit, currency); err != nil {
		BadRequest(c, err)
		return
	}
	if plan.MaxDeposit, err = parseOptionalMoney(req.MaxDeposit, currency); err != nil {
		BadRequest(c, err)
		return
	}

	if err := plan.Validate(); err != nil {
		HandleError(c, err, "CreatePlan")
		return
	}

	if err := h.plans.Create(ctx, plan); err != nil {
		HandleError(c, err, "CreatePlan")
		return
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("plan_id", plan.ID).
		Str("name", plan.Name).
		Msg("План рассрочки создан")

	c.JSON(http.StatusCreated, planResponse(plan))
}

// parseOptionalMoney разбирает опциональную денежную строку запроса.
func parseOptionalMoney(decimal, currency string) (domain.Money, error) {
	if decimal == "" {
		return domain.Money{Currency: currency}, nil
	}
	return domain.ParseMoney(decimal, currency)
}
