package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/domain"
)

// MockPlanRepo — мок для repository.PlanRepository.
type MockPlanRepo struct {
	GetByIDFunc    func(ctx context.Context, planID string) (*domain.DepositPlan, error)
	GetDefaultFunc func(ctx context.Context) (*domain.DepositPlan, error)
	ListActiveFunc func(ctx context.Context) ([]*domain.DepositPlan, error)
	CreateFunc     func(ctx context.Context, plan *domain.DepositPlan) error
}

func (m *MockPlanRepo) GetByID(ctx context.Context, planID string) (*domain.DepositPlan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, planID)
	}
	return nil, nil
}

func (m *MockPlanRepo) GetDefault(ctx context.Context) (*domain.DepositPlan, error) {
	if m.GetDefaultFunc != nil {
		return m.GetDefaultFunc(ctx)
	}
	return nil, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context) ([]*domain.DepositPlan, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *MockPlanRepo) Create(ctx context.Context, plan *domain.DepositPlan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, plan)
	}
	return nil
}

// testPlan возвращает процентный план для тестов.
func testPlan() *domain.DepositPlan {
	return &domain.DepositPlan{
		ID:           "plan-1",
		Name:         "30% депозит",
		Type:         domain.PlanTypePercentage,
		Percentage:   30,
		Installments: 3,
		IsDefault:    true,
		IsActive:     true,
	}
}

// setupPlanRouter создаёт Gin router с маршрутами планов.
func setupPlanRouter(plans *MockPlanRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewPlanHandler(plans)
	r.GET("/api/v1/deposit-plans", h.ListPlans)
	r.GET("/api/v1/deposit-plans/:id", h.GetPlan)
	r.POST("/api/v1/deposit-plans", h.CreatePlan)

	return r
}

// =====================================
// Тесты ListPlans / GetPlan
// =====================================

func TestListPlans_Success(t *testing.T) {
	plans := &MockPlanRepo{
		ListActiveFunc: func(_ context.Context) ([]*domain.DepositPlan, error) {
			return []*domain.DepositPlan{testPlan()}, nil
		},
	}
	r := setupPlanRouter(plans)

	w := performJSON(r, http.MethodGet, "/api/v1/deposit-plans", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plan-1")
	assert.Contains(t, w.Body.String(), "PERCENTAGE")
}

func TestGetPlan_Success(t *testing.T) {
	plans := &MockPlanRepo{
		GetByIDFunc: func(_ context.Context, planID string) (*domain.DepositPlan, error) {
			assert.Equal(t, "plan-1", planID)
			return testPlan(), nil
		},
	}
	r := setupPlanRouter(plans)

	w := performJSON(r, http.MethodGet, "/api/v1/deposit-plans/plan-1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "plan-1", resp.ID)
	assert.Equal(t, float64(30), resp.Percentage)
	assert.Equal(t, 3, resp.Installments)
	assert.Nil(t, resp.FixedAmount)
}

func TestGetPlan_NotFound(t *testing.T) {
	plans := &MockPlanRepo{
		GetByIDFunc: func(_ context.Context, _ string) (*domain.DepositPlan, error) {
			return nil, domain.ErrPlanNotFound
		},
	}
	r := setupPlanRouter(plans)

	w := performJSON(r, http.MethodGet, "/api/v1/deposit-plans/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================
// Тесты CreatePlan
// =====================================

func TestCreatePlan_Success(t *testing.T) {
	var created *domain.DepositPlan
	plans := &MockPlanRepo{
		CreateFunc: func(_ context.Context, plan *domain.DepositPlan) error {
			created = plan
			return nil
		},
	}
	r := setupPlanRouter(plans)

	w := performJSON(r, http.MethodPost, "/api/v1/deposit-plans", CreatePlanRequest{
		Name:         "Фиксированный депозит",
		Type:         "FIXED",
		FixedAmount:  "500.00",
		Installments: 2,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PlanTypeFixed, created.Type)
	assert.Equal(t, int64(50000), created.FixedAmount.Amount)
	assert.Equal(t, "USD", created.FixedAmount.Currency)
	assert.True(t, created.IsActive)
}

// TestCreatePlan_HybridRejected проверяет отклонение плана HYBRID:
// правило разбиения для него не определено.
func TestCreatePlan_HybridRejected(t *testing.T) {
	r := setupPlanRouter(&MockPlanRepo{})

	w := performJSON(r, http.MethodPost, "/api/v1/deposit-plans", CreatePlanRequest{
		Name:         "Гибрид",
		Type:         "HYBRID",
		Installments: 3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePlan_InvalidPercentage(t *testing.T) {
	r := setupPlanRouter(&MockPlanRepo{})

	w := performJSON(r, http.MethodPost, "/api/v1/deposit-plans", CreatePlanRequest{
		Name:         "Сломанный процент",
		Type:         "PERCENTAGE",
		Percentage:   150,
		Installments: 3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestCreatePlan_MissingName(t *testing.T) {
	r := setupPlanRouter(&MockPlanRepo{})

	w := performJSON(r, http.MethodPost, "/api/v1/deposit-plans", map[string]any{
		"type":         "PERCENTAGE",
		"percentage":   30,
		"installments": 3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
