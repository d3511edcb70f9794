package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/gem-checkout/internal/domain"
)

// CartRepository определяет интерфейс для работы с корзинами.
type CartRepository interface {
	// GetCart возвращает корзину со строками и итогом.
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// AddItem добавляет строку и пересчитывает итог в одной транзакции.
	// Если корзины ещё нет, создаёт её.
	AddItem(ctx context.Context, cartID, customerID string, item domain.CartItem) (*domain.Cart, error)

	// RemoveItem удаляет строку по варианту и пересчитывает итог
	// в одной транзакции.
	RemoveItem(ctx context.Context, cartID, variantID string) (*domain.Cart, error)
}

// CartModel — GORM модель для таблицы carts.
type CartModel struct {
	ID          string          `gorm:"column:id;type:varchar(64);primaryKey"`
	CustomerID  string          `gorm:"column:customer_id;type:varchar(64);index"`
	TotalAmount int64           `gorm:"column:total_amount;not null;default:0"`
	Currency    string          `gorm:"column:currency;type:varchar(3);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	Items       []CartItemModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel — GORM модель для таблицы cart_items.
type CartItemModel struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey"`
	CartID     string    `gorm:"column:cart_id;type:varchar(64);not null;index"`
	VariantID  string    `gorm:"column:variant_id;type:varchar(64);not null"`
	Title      string    `gorm:"column:title;type:varchar(255);not null"`
	Quantity   int32     `gorm:"column:quantity;not null"`
	Price      int64     `gorm:"column:price;not null"`
	Currency   string    `gorm:"column:currency;type:varchar(3);not null"`
	Attributes []byte    `gorm:"column:attributes;type:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (CartItemModel) TableName() string {
	return "cart_items"
}

// toDomain конвертирует GORM модель корзины в доменную сущность.
func (m *CartModel) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		TotalAmount: domain.Money{Currency: m.Currency, Amount: m.TotalAmount},
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Items:       make([]domain.CartItem, len(m.Items)),
	}
	for i, item := range m.Items {
		cart.Items[i] = *item.toDomain()
	}
	return cart
}

// toDomain конвертирует GORM модель строки корзины в доменную сущность.
func (m *CartItemModel) toDomain() *domain.CartItem {
	item := &domain.CartItem{
		VariantID: m.VariantID,
		Title:     m.Title,
		Quantity:  m.Quantity,
		Price:     domain.Money{Currency: m.Currency, Amount: m.Price},
	}
	if len(m.Attributes) > 0 {
		_ = json.Unmarshal(m.Attributes, &item.Attributes)
	}
	return item
}

// cartItemModelFromDomain конвертирует доменную строку корзины в GORM модель.
func cartItemModelFromDomain(id, cartID string, item domain.CartItem) *CartItemModel {
	model := &CartItemModel{
		ID:        id,
		CartID:    cartID,
		VariantID: item.VariantID,
		Title:     item.Title,
		Quantity:  item.Quantity,
		Price:     item.Price.Amount,
		Currency:  item.Price.Currency,
	}
	if len(item.Attributes) > 0 {
		if data, err := json.Marshal(item.Attributes); err == nil {
			model.Attributes = data
		}
	}
	return model
}

// cartRepository — GORM реализация CartRepository.
type cartRepository struct {
	db    *gorm.DB
	newID func() string
}

// NewCartRepository создаёт новый репозиторий корзин.
// newID генерирует идентификаторы строк (в бою — uuid.NewString).
func NewCartRepository(db *gorm.DB, newID func() string) CartRepository {
	return &cartRepository{db: db, newID: newID}
}

// GetCart возвращает корзину со строками и итогом.
func (r *cartRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var model CartModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", cartID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// AddItem добавляет строку и пересчитывает итог в одной транзакции.
func (r *cartRepository) AddItem(ctx context.Context, cartID, customerID string, item domain.CartItem) (*domain.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart CartModel
		err := tx.Where("id = ?", cartID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = CartModel{ID: cartID, CustomerID: customerID, Currency: item.Price.Currency}
			if err := tx.Create(&cart).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(cartItemModelFromDomain(r.newID(), cartID, item)).Error; err != nil {
			return err
		}

		return r.recalculateTotals(tx, cartID)
	})
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, cartID)
}

// RemoveItem удаляет строку по варианту и пересчитывает итог
// в одной транзакции.
func (r *cartRepository) RemoveItem(ctx context.Context, cartID, variantID string) (*domain.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("cart_id = ? AND variant_id = ?", cartID, variantID).
			Delete(&CartItemModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrItemNotFound
		}

		return r.recalculateTotals(tx, cartID)
	})
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, cartID)
}

// recalculateTotals пересчитывает итог корзины по её строкам.
// Выполняется внутри той же транзакции, что и изменение состава:
// итог и строки никогда не расходятся.
func (r *cartRepository) recalculateTotals(tx *gorm.DB, cartID string) error {
	return tx.Model(&CartModel{}).
		Where("id = ?", cartID).
		Update("total_amount", tx.Model(&CartItemModel{}).
			Select("COALESCE(SUM(price * quantity), 0)").
			Where("cart_id = ?", cartID),
		).Error
}
