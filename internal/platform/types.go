package platform

import "example.com/gem-checkout/internal/domain"

// Product — товар на платформе. Для внешнего каталога это долгоживущий
// товар-контейнер, по одному на источник.
type Product struct {
	ID     string
	Title  string
	Status string // active / draft
}

// Variant — вариант товара на платформе.
type Variant struct {
	ID        string
	ProductID string
	SKU       string
	Title     string
	Price     domain.Money
}

// VariantInput — данные для создания/обновления варианта.
type VariantInput struct {
	SKU string
	// OptionValue — значение опции, отличающее вариант от дефолтного
	// (внешний идентификатор позиции или ключ взноса).
	OptionValue string
	Price       domain.Money
}

// Metafield — метаполе, прикреплённое к объекту платформы.
type Metafield struct {
	ID        string
	Namespace string
	Key       string
	Type      string
	Value     string
}

// MetafieldInput — данные для записи метаполя.
type MetafieldInput struct {
	Namespace string
	Key       string
	Type      string // single_line_text_field / json / number_decimal
	Value     string
}

// DraftOrderLineInput — строка предварительного заказа.
type DraftOrderLineInput struct {
	VariantID string
	Quantity  int32
}

// DraftOrderInput — данные для создания предварительного заказа.
type DraftOrderInput struct {
	Lines      []DraftOrderLineInput
	Metafields []MetafieldInput
	Note       string
}

// DraftOrder — предварительный заказ на платформе.
type DraftOrder struct {
	ID     string
	Status string // open / completed
}

// Order — реальный заказ, полученный завершением предварительного.
type Order struct {
	ID     string
	Name   string // Человекочитаемый номер заказа
	Status string
}

// TransactionKind — тип транзакции леджера платформы.
const (
	TransactionKindCapture = "capture"
)

// TransactionInput — данные для записи транзакции по заказу.
type TransactionInput struct {
	Kind    string
	Amount  domain.Money
	Gateway string // Название шлюза для отображения в админке
}

// Transaction — транзакция леджера платформы.
type Transaction struct {
	ID     string
	Kind   string
	Status string
}

// PaymentLinkInput — данные для создания платёжной ссылки.
type PaymentLinkInput struct {
	OrderID     string
	Amount      domain.Money
	Description string
}

// PaymentLink — платёжная ссылка платформы.
type PaymentLink struct {
	ID  string
	URL string
}

// CartLineInput — строка для создания корзины через публичный API.
type CartLineInput struct {
	MerchandiseID string            // ID варианта
	Quantity      int32             // Количество
	Attributes    map[string]string // Произвольные атрибуты строки
}

// CartLine — строка корзины в ответе публичного API.
type CartLine struct {
	ID            string
	MerchandiseID string
	Quantity      int32
}

// Cart — корзина, созданная через публичный API платформы.
type Cart struct {
	ID          string
	CheckoutURL string
	Lines       []CartLine
	TotalAmount domain.Money
}
