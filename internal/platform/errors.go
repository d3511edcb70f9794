// Package platform содержит клиенты торговой платформы:
// административный API (товары, варианты, заказы, метаполя)
// и публичный storefront API (корзины).
package platform

import (
	"errors"
	"fmt"
)

// ErrorKind — классификация ошибки платформы.
// Определяется один раз на границе разбора HTTP-ответа; остальной код
// принимает решения по Kind и никогда не анализирует текст ошибки.
type ErrorKind string

const (
	// KindRejected — платформа отклонила запрос (валидация, user errors).
	// Повторять бессмысленно.
	KindRejected ErrorKind = "rejected"

	// KindNotYetVisible — объект ещё не виден публичному API из-за
	// отставания каталога от административной записи. Временная ошибка,
	// имеет смысл повторить.
	KindNotYetVisible ErrorKind = "not_yet_visible"

	// KindNotFound — объект не существует.
	KindNotFound ErrorKind = "not_found"

	// KindUnavailable — платформа недоступна (сеть, 5xx).
	KindUnavailable ErrorKind = "unavailable"
)

// Error — типизированная ошибка платформы.
type Error struct {
	Kind    ErrorKind // Классификация
	Op      string    // Операция ("admin.CreateVariant", "storefront.CreateCart")
	Message string    // Агрегированное сообщение платформы
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return fmt.Sprintf("платформа: %s: %s (%s)", e.Op, e.Message, e.Kind)
}

// IsNotYetVisible возвращает true для ошибки отставания публичного каталога.
func IsNotYetVisible(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindNotYetVisible
}

// IsNotFound возвращает true, если платформа не нашла объект.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindNotFound
}

// IsRejected возвращает true, если платформа отклонила запрос.
func IsRejected(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindRejected
}
