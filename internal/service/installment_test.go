package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/domain"
)

func usd(amount int64) domain.Money {
	return domain.Money{Currency: "USD", Amount: amount}
}

// =====================================
// Тесты CalculateInstallments
// =====================================

func TestCalculateInstallments_Percentage(t *testing.T) {
	// 30% от 1000.00 на 3 взноса: [300, 350, 350]
	plan := &domain.DepositPlan{
		Type:         domain.PlanTypePercentage,
		Percentage:   30,
		Installments: 3,
	}

	amounts, err := CalculateInstallments(plan, usd(100000))

	require.NoError(t, err)
	require.Len(t, amounts, 3)
	assert.Equal(t, int64(30000), amounts[0].Amount)
	assert.Equal(t, int64(35000), amounts[1].Amount)
	assert.Equal(t, int64(35000), amounts[2].Amount)
}

func TestCalculateInstallments_FixedClippedToTotal(t *testing.T) {
	// Фиксированный взнос 1500.00 больше суммы 1000.00: [1000, 0, 0]
	plan := &domain.DepositPlan{
		Type:         domain.PlanTypeFixed,
		FixedAmount:  usd(150000),
		Installments: 3,
	}

	amounts, err := CalculateInstallments(plan, usd(100000))

	require.NoError(t, err)
	require.Len(t, amounts, 3)
	assert.Equal(t, int64(100000), amounts[0].Amount)
	assert.Equal(t, int64(0), amounts[1].Amount)
	assert.Equal(t, int64(0), amounts[2].Amount)
}

func TestCalculateInstallments_SingleInstallmentCollapse(t *testing.T) {
	plan := &domain.DepositPlan{
		Type:         domain.PlanTypePercentage,
		Percentage:   30,
		Installments: 1,
	}

	amounts, err := CalculateInstallments(plan, usd(100000))

	require.NoError(t, err)
	require.Len(t, amounts, 1)
	assert.Equal(t, int64(30000), amounts[0].Amount)
}

func TestCalculateInstallments_SumProperty(t *testing.T) {
	// Сумма взносов всегда равна сумме заказа точно, включая
	// неделящиеся минорные единицы
	tests := []struct {
		name         string
		percentage   float64
		installments int
		total        int64
	}{
		{"ровное деление", 30, 3, 100000},
		{"остаток в один цент", 33, 3, 10001},
		{"остаток в два цента", 25, 4, 99999},
		{"простое число", 10, 7, 1000003},
		{"маленькая сумма", 50, 5, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &domain.DepositPlan{
				Type:         domain.PlanTypePercentage,
				Percentage:   tt.percentage,
				Installments: tt.installments,
			}

			amounts, err := CalculateInstallments(plan, usd(tt.total))

			require.NoError(t, err)
			require.Len(t, amounts, tt.installments)

			var sum int64
			for _, a := range amounts {
				sum += a.Amount
				assert.GreaterOrEqual(t, a.Amount, int64(0))
			}
			assert.Equal(t, tt.total, sum, "сумма взносов должна равняться сумме заказа")
		})
	}
}

func TestCalculateInstallments_DepositBounds(t *testing.T) {
	t.Run("минимальный депозит поднимает первый взнос", func(t *testing.T) {
		plan := &domain.DepositPlan{
			Type:         domain.PlanTypePercentage,
			Percentage:   10,
			Installments: 2,
			MinDeposit:   usd(50000),
		}

		amounts, err := CalculateInstallments(plan, usd(100000))

		require.NoError(t, err)
		assert.Equal(t, int64(50000), amounts[0].Amount)
		assert.Equal(t, int64(50000), amounts[1].Amount)
	})

	t.Run("максимальный депозит ограничивает первый взнос", func(t *testing.T) {
		plan := &domain.DepositPlan{
			Type:         domain.PlanTypePercentage,
			Percentage:   90,
			Installments: 2,
			MaxDeposit:   usd(20000),
		}

		amounts, err := CalculateInstallments(plan, usd(100000))

		require.NoError(t, err)
		assert.Equal(t, int64(20000), amounts[0].Amount)
		assert.Equal(t, int64(80000), amounts[1].Amount)
	})
}

func TestCalculateInstallments_InvalidPlans(t *testing.T) {
	tests := []struct {
		name        string
		plan        *domain.DepositPlan
		total       domain.Money
		expectedErr error
	}{
		{
			name:        "PERCENTAGE без процента",
			plan:        &domain.DepositPlan{Type: domain.PlanTypePercentage, Installments: 3},
			total:       usd(100000),
			expectedErr: domain.ErrInvalidPlan,
		},
		{
			name:        "FIXED без суммы",
			plan:        &domain.DepositPlan{Type: domain.PlanTypeFixed, Installments: 3},
			total:       usd(100000),
			expectedErr: domain.ErrInvalidPlan,
		},
		{
			name:        "HYBRID не поддерживается",
			plan:        &domain.DepositPlan{Type: domain.PlanTypeHybrid, Percentage: 30, FixedAmount: usd(10000), Installments: 3},
			total:       usd(100000),
			expectedErr: domain.ErrUnsupportedPlanType,
		},
		{
			name:        "нулевая сумма заказа",
			plan:        &domain.DepositPlan{Type: domain.PlanTypePercentage, Percentage: 30, Installments: 3},
			total:       usd(0),
			expectedErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateInstallments(tt.plan, tt.total)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
