package domain

import "time"

// PlanType — тип плана рассрочки.
type PlanType string

const (
	// PlanTypePercentage — первый взнос как процент от суммы заказа.
	PlanTypePercentage PlanType = "PERCENTAGE"

	// PlanTypeFixed — первый взнос фиксированной суммой.
	PlanTypeFixed PlanType = "FIXED"

	// PlanTypeHybrid — зарезервирован в данных, правило разбиения
	// не определено; калькулятор отклоняет такие планы.
	PlanTypeHybrid PlanType = "HYBRID"
)

// DepositPlan — конфигурация разбиения суммы заказа на взносы.
// Создаётся и редактируется административно; сервис читает планы
// и использует их в калькуляторе рассрочки.
type DepositPlan struct {
	ID           string    // Уникальный идентификатор плана (UUID)
	Name         string    // Человекочитаемое название
	Type         PlanType  // Тип разбиения
	Percentage   float64   // Процент первого взноса (для PERCENTAGE)
	FixedAmount  Money     // Фиксированный первый взнос (для FIXED)
	Installments int       // Общее количество взносов
	MinDeposit   Money     // Нижняя граница первого взноса (0 = не задана)
	MaxDeposit   Money     // Верхняя граница первого взноса (0 = не задана)
	IsDefault    bool      // План по умолчанию при создании сессии без plan_id
	IsActive     bool      // Неактивные планы не участвуют в выборе
	CreatedAt    time.Time // Дата создания
	UpdatedAt    time.Time // Дата последнего обновления
}

// Validate проверяет корректность конфигурации плана.
func (p *DepositPlan) Validate() error {
	switch p.Type {
	case PlanTypePercentage:
		if p.Percentage <= 0 || p.Percentage > 100 {
			return ErrInvalidPlan
		}
	case PlanTypeFixed:
		if p.FixedAmount.Amount <= 0 {
			return ErrInvalidPlan
		}
	case PlanTypeHybrid:
		return ErrUnsupportedPlanType
	default:
		return ErrInvalidPlan
	}

	if p.Installments < 1 {
		return ErrInvalidPlan
	}

	return nil
}
