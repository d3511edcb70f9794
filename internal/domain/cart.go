package domain

import "time"

// Cart — корзина покупателя в хранилище сервиса.
// Снимок UI-корзины: строки ссылаются на материализованные варианты,
// итог пересчитывается при каждом изменении состава в одной транзакции
// со вставкой/удалением строки.
type Cart struct {
	ID          string     // Идентификатор корзины на платформе
	CustomerID  string     // ID покупателя (пустой для гостя)
	Items       []CartItem // Строки корзины
	TotalAmount Money      // Итог по всем строкам
	CreatedAt   time.Time  // Дата создания
	UpdatedAt   time.Time  // Дата последнего изменения
}

// Recalculate пересчитывает итог корзины по строкам.
func (c *Cart) Recalculate() {
	total := Money{Currency: c.TotalAmount.Currency}
	for _, item := range c.Items {
		if total.Currency == "" {
			total.Currency = item.Price.Currency
		}
		total.Amount += item.Price.Amount * int64(item.Quantity)
	}
	c.TotalAmount = total
}

// IsEmpty возвращает true для корзины без строк.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
