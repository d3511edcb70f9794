package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/gem-checkout/internal/domain"
)

// StoneRepository определяет интерфейс зеркала атрибутов камней.
// Зеркало денормализует канонические атрибуты материализованных позиций
// для административных выборок; источником правды остаётся внешний каталог.
type StoneRepository interface {
	// Upsert создаёт или обновляет запись зеркала по внешнему идентификатору.
	Upsert(ctx context.Context, item *domain.CatalogItem, productID, variantID string) error
}

// StoneModel — GORM модель для таблицы diamonds.
type StoneModel struct {
	ExternalID string    `gorm:"column:external_id;type:varchar(64);primaryKey"`
	Source     string    `gorm:"column:source;type:varchar(20);not null;index"`
	Title      string    `gorm:"column:title;type:varchar(255);not null"`
	Price      int64     `gorm:"column:price;not null"`
	Currency   string    `gorm:"column:currency;type:varchar(3);not null"`
	ImageURL   string    `gorm:"column:image_url;type:text"`
	Carat      float64   `gorm:"column:carat;not null;default:0"`
	Color      string    `gorm:"column:color;type:varchar(10)"`
	Clarity    string    `gorm:"column:clarity;type:varchar(10)"`
	Cut        string    `gorm:"column:cut;type:varchar(20)"`
	Shape      string    `gorm:"column:shape;type:varchar(20)"`
	CertType   string    `gorm:"column:cert_type;type:varchar(20)"`
	CertNumber string    `gorm:"column:cert_number;type:varchar(64)"`
	ProductID  string    `gorm:"column:product_id;type:varchar(64);not null"`
	VariantID  string    `gorm:"column:variant_id;type:varchar(64);not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (StoneModel) TableName() string {
	return "diamonds"
}

// stoneRepository — GORM реализация StoneRepository.
type stoneRepository struct {
	db *gorm.DB
}

// NewStoneRepository создаёт новый репозиторий зеркала камней.
func NewStoneRepository(db *gorm.DB) StoneRepository {
	return &stoneRepository{db: db}
}

// Upsert создаёт или обновляет запись зеркала по внешнему идентификатору.
func (r *stoneRepository) Upsert(ctx context.Context, item *domain.CatalogItem, productID, variantID string) error {
	model := &StoneModel{
		ExternalID: item.ExternalID,
		Source:     string(item.Source),
		Title:      item.Title,
		Price:      item.Price.Amount,
		Currency:   item.Price.Currency,
		ImageURL:   item.ImageURL,
		Carat:      item.Attributes.Carat,
		Color:      item.Attributes.Color,
		Clarity:    item.Attributes.Clarity,
		Cut:        item.Attributes.Cut,
		Shape:      item.Attributes.Shape,
		CertType:   item.Attributes.CertType,
		CertNumber: item.Attributes.CertNumber,
		ProductID:  productID,
		VariantID:  variantID,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "price", "currency", "image_url",
				"carat", "color", "clarity", "cut", "shape",
				"cert_type", "cert_number", "product_id", "variant_id",
			}),
		}).
		Create(model).Error
}
