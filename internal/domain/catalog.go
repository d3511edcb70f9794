package domain

// SourceType — источник позиции внешнего каталога.
// Для каждого источника на платформе существует один контейнерный товар.
type SourceType string

const (
	// SourceNatural — природные камни.
	SourceNatural SourceType = "natural"

	// SourceLabGrown — лабораторно выращенные камни.
	SourceLabGrown SourceType = "lab_grown"
)

// StoneAttributes — каноническая форма атрибутов камня.
// Нормализация разнородных написаний полей входного фида выполняется
// один раз при чтении из каталога (catalog.Normalize); остальной код
// работает только с этой структурой.
type StoneAttributes struct {
	Carat      float64 // Вес в каратах
	Color      string  // Цветовая градация (D..Z)
	Clarity    string  // Чистота (IF, VVS1, ...)
	Cut        string  // Градация огранки (Excellent, Very Good, ...)
	Shape      string  // Форма (Round, Oval, ...)
	CertType   string  // Сертифицирующая лаборатория (GIA, IGI, ...)
	CertNumber string  // Номер сертификата
}

// CatalogItem — позиция внешнего каталога.
// Неизменяема с точки зрения сервиса; владелец — внешний каталог.
type CatalogItem struct {
	ExternalID string          // Идентификатор во внешнем каталоге
	Source     SourceType      // Источник
	Title      string          // Отображаемое название
	Price      Money           // Отображаемая цена
	ImageURL   string          // Ссылка на изображение
	Attributes StoneAttributes // Канонические атрибуты
	Raw        map[string]any  // Полный исходный payload фида
}
