// Package service содержит бизнес-логику сервиса: калькулятор рассрочки,
// материализацию вариантов, мост корзины и оркестрацию депозитных сессий.
package service

import (
	"fmt"
	"math"

	"example.com/gem-checkout/internal/domain"
)

// CalculateInstallments разбивает сумму заказа на взносы по плану рассрочки.
// Чистая функция без I/O.
//
// Первый взнос: процент от суммы (PERCENTAGE) или фиксированная сумма (FIXED),
// ограниченный границами плана и суммой заказа. Остаток делится поровну между
// оставшимися взносами; неделящиеся минорные единицы распределяются по одной
// на взнос начиная со второго, поэтому сумма взносов всегда равна сумме заказа
// точно, без накопления ошибки округления.
func CalculateInstallments(plan *domain.DepositPlan, total domain.Money) ([]domain.Money, error) {
	if total.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	first, err := firstInstallment(plan, total)
	if err != nil {
		return nil, err
	}

	// Единственный взнос: вся логика разбиения схлопывается
	remainingCount := plan.Installments - 1
	if remainingCount <= 0 {
		return []domain.Money{first}, nil
	}

	amounts := make([]domain.Money, 0, plan.Installments)
	amounts = append(amounts, first)

	remaining := total.Amount - first.Amount
	base := remaining / int64(remainingCount)
	leftover := remaining % int64(remainingCount)

	for i := 0; i < remainingCount; i++ {
		amount := base
		if int64(i) < leftover {
			amount++
		}
		amounts = append(amounts, domain.Money{Currency: total.Currency, Amount: amount})
	}

	return amounts, nil
}

// firstInstallment вычисляет первый взнос с учётом типа плана и границ.
func firstInstallment(plan *domain.DepositPlan, total domain.Money) (domain.Money, error) {
	var first int64

	switch plan.Type {
	case domain.PlanTypePercentage:
		if plan.Percentage <= 0 {
			return domain.Money{}, fmt.Errorf("%w: PERCENTAGE без процента", domain.ErrInvalidPlan)
		}
		first = int64(math.Round(float64(total.Amount) * plan.Percentage / 100))
	case domain.PlanTypeFixed:
		if plan.FixedAmount.Amount <= 0 {
			return domain.Money{}, fmt.Errorf("%w: FIXED без фиксированной суммы", domain.ErrInvalidPlan)
		}
		first = plan.FixedAmount.Amount
	case domain.PlanTypeHybrid:
		return domain.Money{}, domain.ErrUnsupportedPlanType
	default:
		return domain.Money{}, fmt.Errorf("%w: неизвестный тип %q", domain.ErrInvalidPlan, plan.Type)
	}

	// Границы плана применяются до отсечения по сумме заказа
	if plan.MinDeposit.Amount > 0 && first < plan.MinDeposit.Amount {
		first = plan.MinDeposit.Amount
	}
	if plan.MaxDeposit.Amount > 0 && first > plan.MaxDeposit.Amount {
		first = plan.MaxDeposit.Amount
	}

	// Первый взнос никогда не превышает сумму заказа
	if first > total.Amount {
		first = total.Amount
	}
	if first < 0 {
		first = 0
	}

	return domain.Money{Currency: total.Currency, Amount: first}, nil
}
