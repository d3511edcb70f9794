package catalog

import (
	"fmt"
	"math"
	"strings"

	"example.com/gem-checkout/internal/domain"
)

// Normalize приводит разнородный документ фида к канонической форме
// атрибутов. Применяется один раз на входе; остальной код видит только
// каноническую структуру и никогда не перебирает варианты написания полей.
func Normalize(doc Document) domain.StoneAttributes {
	return domain.StoneAttributes{
		Carat:      firstNumber(doc, "carat", "Carat", "carats", "weight", "ct"),
		Color:      firstString(doc, "color", "colour", "Color", "color_grade"),
		Clarity:    firstString(doc, "clarity", "Clarity", "clarity_grade"),
		Cut:        firstString(doc, "cut", "Cut", "cut_grade", "cutGrade"),
		Shape:      firstString(doc, "shape", "Shape", "form"),
		CertType:   firstString(doc, "cert", "certificate", "lab", "cert_type", "certType"),
		CertNumber: firstString(doc, "cert_number", "certNumber", "certificate_number", "report_number"),
	}
}

// ItemFromDocument собирает каноническую позицию каталога из документа.
func ItemFromDocument(doc Document) (*domain.CatalogItem, error) {
	externalID := documentExternalID(doc)
	if externalID == "" {
		return nil, fmt.Errorf("%w: документ без внешнего идентификатора", domain.ErrItemNotFound)
	}

	price, err := documentPrice(doc)
	if err != nil {
		return nil, fmt.Errorf("позиция %s: %w", externalID, err)
	}

	title := firstString(doc, "title", "name", "description")
	if title == "" {
		title = fmt.Sprintf("Stone %s", externalID)
	}

	return &domain.CatalogItem{
		ExternalID: externalID,
		Source:     documentSource(doc),
		Title:      title,
		Price:      price,
		ImageURL:   firstString(doc, "image", "image_url", "imageUrl", "photo"),
		Attributes: Normalize(doc),
		Raw:        doc,
	}, nil
}

// documentSource определяет тип источника камня. Фид помечает
// лабораторные камни в нескольких несовместимых форматах.
func documentSource(doc Document) domain.SourceType {
	s := strings.ToLower(firstString(doc, "source", "type", "growth", "origin"))
	if strings.Contains(s, "lab") {
		return domain.SourceLabGrown
	}
	return domain.SourceNatural
}

// documentPrice извлекает цену. Фид присылает либо число в основных
// единицах валюты, либо десятичную строку.
func documentPrice(doc Document) (domain.Money, error) {
	currency := firstString(doc, "currency", "Currency")
	if currency == "" {
		currency = "USD"
	}

	for _, key := range []string{"price", "Price", "total_price", "amount"} {
		switch v := doc[key].(type) {
		case float64:
			return domain.Money{Currency: currency, Amount: int64(math.Round(v * 100))}, nil
		case string:
			if v == "" {
				continue
			}
			return domain.ParseMoney(v, currency)
		}
	}
	return domain.Money{}, fmt.Errorf("%w: документ без цены", domain.ErrInvalidAmount)
}

// firstString возвращает первое непустое строковое значение среди
// известных вариантов написания ключа.
func firstString(doc Document, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// firstNumber возвращает первое числовое значение среди известных
// вариантов написания ключа; строки с числами тоже принимаются.
func firstNumber(doc Document, keys ...string) float64 {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case float64:
			return v
		case string:
			var f float64
			if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
				return f
			}
		}
	}
	return 0
}
