// Package cache содержит кэш материализаций: внешний идентификатор
// позиции → идентификаторы товара и варианта на платформе.
//
// Кэш не авторитетен: источником правды остаётся поиск варианта по SKU
// на стороне платформы. Промах или устаревшая запись стоят один лишний
// запрос к платформе, но никогда не нарушают корректность.
package cache

import "context"

// Entry — результат материализации одной позиции.
type Entry struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// Materializations — кэш материализаций.
type Materializations interface {
	// Get возвращает запись по внешнему идентификатору или (nil, nil)
	// при промахе.
	Get(ctx context.Context, externalID string) (*Entry, error)

	// Put сохраняет запись. Вызывается только после того, как вариант
	// подтверждённо существует на платформе.
	Put(ctx context.Context, externalID string, entry Entry) error
}
