// Package repository содержит доступ к данным сервиса: планы рассрочки,
// депозитные сессии с графиками платежей, корзины и зеркало атрибутов камней.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/gem-checkout/internal/domain"
)

// PlanRepository определяет интерфейс для работы с планами рассрочки.
type PlanRepository interface {
	// GetByID возвращает план по ID.
	GetByID(ctx context.Context, planID string) (*domain.DepositPlan, error)

	// GetDefault возвращает активный план по умолчанию.
	GetDefault(ctx context.Context) (*domain.DepositPlan, error)

	// ListActive возвращает все активные планы.
	ListActive(ctx context.Context) ([]*domain.DepositPlan, error)

	// Create создаёт новый план.
	Create(ctx context.Context, plan *domain.DepositPlan) error
}

// PlanModel — GORM модель для таблицы deposit_plans.
type PlanModel struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name         string    `gorm:"column:name;type:varchar(255);not null"`
	Type         string    `gorm:"column:type;type:varchar(20);not null"`
	Percentage   float64   `gorm:"column:percentage;not null;default:0"`
	FixedAmount  int64     `gorm:"column:fixed_amount;not null;default:0"`
	Currency     string    `gorm:"column:currency;type:varchar(3);not null"`
	Installments int       `gorm:"column:installments;not null"`
	MinDeposit   int64     `gorm:"column:min_deposit;not null;default:0"`
	MaxDeposit   int64     `gorm:"column:max_deposit;not null;default:0"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false;index"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (PlanModel) TableName() string {
	return "deposit_plans"
}

// toDomain конвертирует GORM модель плана в доменную сущность.
func (m *PlanModel) toDomain() *domain.DepositPlan {
	return &domain.DepositPlan{
		ID:           m.ID,
		Name:         m.Name,
		Type:         domain.PlanType(m.Type),
		Percentage:   m.Percentage,
		FixedAmount:  domain.Money{Currency: m.Currency, Amount: m.FixedAmount},
		Installments: m.Installments,
		MinDeposit:   domain.Money{Currency: m.Currency, Amount: m.MinDeposit},
		MaxDeposit:   domain.Money{Currency: m.Currency, Amount: m.MaxDeposit},
		IsDefault:    m.IsDefault,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// planModelFromDomain конвертирует доменную сущность плана в GORM модель.
func planModelFromDomain(p *domain.DepositPlan) *PlanModel {
	return &PlanModel{
		ID:           p.ID,
		Name:         p.Name,
		Type:         string(p.Type),
		Percentage:   p.Percentage,
		FixedAmount:  p.FixedAmount.Amount,
		Currency:     p.FixedAmount.Currency,
		Installments: p.Installments,
		MinDeposit:   p.MinDeposit.Amount,
		MaxDeposit:   p.MaxDeposit.Amount,
		IsDefault:    p.IsDefault,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// planRepository — GORM реализация PlanRepository.
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository создаёт новый репозиторий планов рассрочки.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// GetByID возвращает план по ID.
func (r *planRepository) GetByID(ctx context.Context, planID string) (*domain.DepositPlan, error) {
	var model PlanModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", planID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// GetDefault возвращает активный план по умолчанию.
func (r *planRepository) GetDefault(ctx context.Context) (*domain.DepositPlan, error) {
	var model PlanModel

	if err := r.db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// ListActive возвращает все активные планы, план по умолчанию первым.
func (r *planRepository) ListActive(ctx context.Context) ([]*domain.DepositPlan, error) {
	var models []PlanModel

	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_default DESC, created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	plans := make([]*domain.DepositPlan, len(models))
	for i := range models {
		plans[i] = models[i].toDomain()
	}
	return plans, nil
}

// Create создаёт новый план.
func (r *planRepository) Create(ctx context.Context, plan *domain.DepositPlan) error {
	model := planModelFromDomain(plan)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	plan.CreatedAt = model.CreatedAt
	plan.UpdatedAt = model.UpdatedAt
	return nil
}
