package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"example.com/gem-checkout/internal/cache"
	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/internal/repository"
	"example.com/gem-checkout/pkg/logger"
	"example.com/gem-checkout/pkg/metrics"
)

// metafieldNamespace — namespace метаполей сервиса на платформе.
const metafieldNamespace = "gemstore"

// externalSKUPrefix — префикс детерминированного SKU материализованного варианта.
const externalSKUPrefix = "EXT-"

// ExternalSKU возвращает детерминированный SKU варианта для позиции каталога.
// Уникальность SKU на платформе — основная защита от дублирования вариантов
// при конкурентных материализациях одной позиции.
func ExternalSKU(externalID string) string {
	return externalSKUPrefix + externalID
}

// MaterializeResult — результат материализации позиции каталога.
type MaterializeResult struct {
	ProductID string
	VariantID string

	// Warnings — ошибки некритичных побочных эффектов (публикация,
	// метаполя, зеркало атрибутов). Основная операция при них не падает.
	Warnings []string
}

// Materializer находит или создаёт вариант на платформе для позиции
// внешнего каталога.
type Materializer interface {
	// Materialize выполняет find-or-create варианта для позиции каталога.
	// Повторный вызов с тем же ExternalID сходится к одному варианту:
	// существующий переиспользуется и переоценивается, дубликат не создаётся.
	Materialize(ctx context.Context, item *domain.CatalogItem) (*MaterializeResult, error)
}

// MaterializerConfig — настройки материализатора.
type MaterializerConfig struct {
	// SalesChannelID — канал продаж для публикации товара-контейнера.
	SalesChannelID string

	// ProductTitles — заголовки товаров-контейнеров по источнику,
	// для поиска по заголовку, когда метаполе не размечено.
	ProductTitles map[domain.SourceType]string
}

// materializer — реализация Materializer.
type materializer struct {
	admin  platform.AdminClient
	cache  cache.Materializations
	stones repository.StoneRepository // может быть nil — зеркало выключено
	cfg    MaterializerConfig
}

// NewMaterializer создаёт материализатор вариантов.
// stones может быть nil — тогда зеркало атрибутов не ведётся.
func NewMaterializer(admin platform.AdminClient, materializations cache.Materializations, stones repository.StoneRepository, cfg MaterializerConfig) Materializer {
	if cfg.ProductTitles == nil {
		cfg.ProductTitles = map[domain.SourceType]string{
			domain.SourceNatural:  "Natural Diamonds",
			domain.SourceLabGrown: "Lab Grown Diamonds",
		}
	}
	return &materializer{admin: admin, cache: materializations, stones: stones, cfg: cfg}
}

// Materialize выполняет find-or-create варианта для позиции каталога.
func (m *materializer) Materialize(ctx context.Context, item *domain.CatalogItem) (*MaterializeResult, error) {
	log := logger.FromContext(ctx)

	// Быстрый путь: кэш указывает на уже материализованный вариант.
	// Любая ошибка быстрого пути не фатальна — проваливаемся на медленный.
	if entry, err := m.cache.Get(ctx, item.ExternalID); err == nil && entry != nil {
		result, err := m.refreshCached(ctx, item, entry)
		if err == nil {
			metrics.MaterializationsTotal.WithLabelValues("cache_hit").Inc()
			return result, nil
		}
		log.Warn().Err(err).
			Str("external_id", item.ExternalID).
			Str("variant_id", entry.VariantID).
			Msg("Быстрый путь материализации не удался, переходим к поиску на платформе")
	}

	result, created, err := m.materializeSlow(ctx, item)
	if err != nil {
		metrics.MaterializationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if created {
		metrics.MaterializationsTotal.WithLabelValues("created").Inc()
	} else {
		metrics.MaterializationsTotal.WithLabelValues("reused").Inc()
	}

	return result, nil
}

// refreshCached обновляет цену закэшированного варианта и выполняет
// побочные эффекты. Возвращает ошибку, если вариант больше не существует.
func (m *materializer) refreshCached(ctx context.Context, item *domain.CatalogItem, entry *cache.Entry) (*MaterializeResult, error) {
	input := platform.VariantInput{
		SKU:         ExternalSKU(item.ExternalID),
		OptionValue: item.ExternalID,
		Price:       item.Price,
	}

	if _, err := m.admin.UpdateVariant(ctx, entry.VariantID, input); err != nil {
		return nil, fmt.Errorf("обновление закэшированного варианта: %w", err)
	}

	result := &MaterializeResult{ProductID: entry.ProductID, VariantID: entry.VariantID}
	result.Warnings = m.applySideEffects(ctx, item, entry.ProductID, entry.VariantID)
	return result, nil
}

// materializeSlow — поиск товара-контейнера и find-or-create варианта.
// Возвращает created=true, если вариант был создан, а не переиспользован.
func (m *materializer) materializeSlow(ctx context.Context, item *domain.CatalogItem) (*MaterializeResult, bool, error) {
	log := logger.FromContext(ctx)

	product, err := m.resolveProduct(ctx, item.Source)
	if err != nil {
		return nil, false, err
	}

	sku := ExternalSKU(item.ExternalID)
	input := platform.VariantInput{
		SKU:         sku,
		OptionValue: item.ExternalID,
		Price:       item.Price,
	}

	created := false
	variant, err := m.admin.FindVariantBySKU(ctx, product.ID, sku)
	switch {
	case err == nil:
		// Переиспользуем и переоцениваем существующий вариант
		if variant, err = m.admin.UpdateVariant(ctx, variant.ID, input); err != nil {
			return nil, false, fmt.Errorf("переоценка варианта %s: %w", sku, err)
		}
	case platform.IsNotFound(err):
		variant, err = m.admin.CreateVariant(ctx, product.ID, input)
		if err != nil {
			// Конкурентная материализация могла создать вариант между
			// поиском и созданием: ищем повторно вместо ошибки
			if platform.IsRejected(err) {
				if existing, findErr := m.admin.FindVariantBySKU(ctx, product.ID, sku); findErr == nil {
					log.Info().Str("sku", sku).Msg("Вариант создан конкурентным запросом, переиспользуем")
					variant = existing
					break
				}
			}
			return nil, false, fmt.Errorf("создание варианта %s: %w", sku, err)
		}
		created = true
	default:
		return nil, false, fmt.Errorf("поиск варианта %s: %w", sku, err)
	}

	result := &MaterializeResult{ProductID: product.ID, VariantID: variant.ID}
	result.Warnings = m.applySideEffects(ctx, item, product.ID, variant.ID)

	// Кэш пишется последним, только после подтверждения существования варианта
	if err := m.cache.Put(ctx, item.ExternalID, cache.Entry{ProductID: product.ID, VariantID: variant.ID}); err != nil {
		log.Warn().Err(err).Str("external_id", item.ExternalID).Msg("Не удалось записать кэш материализаций")
	}

	return result, created, nil
}

// resolveProduct находит товар-контейнер для источника: сначала по
// метаполю, затем по заголовку. Контейнер создаётся административно,
// сервис его не создаёт.
func (m *materializer) resolveProduct(ctx context.Context, source domain.SourceType) (*platform.Product, error) {
	product, err := m.admin.FindProductByMetafield(ctx, metafieldNamespace, "source", string(source))
	if err == nil {
		return product, nil
	}
	if !platform.IsNotFound(err) {
		return nil, fmt.Errorf("поиск товара-контейнера по метаполю: %w", err)
	}

	title, ok := m.cfg.ProductTitles[source]
	if !ok {
		return nil, fmt.Errorf("%w: источник %s", domain.ErrProductNotFound, source)
	}

	product, err = m.admin.FindProductByTitle(ctx, title)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: источник %s", domain.ErrProductNotFound, source)
		}
		return nil, fmt.Errorf("поиск товара-контейнера по заголовку: %w", err)
	}
	return product, nil
}

// applySideEffects выполняет некритичные побочные эффекты материализации
// параллельно: остаток, публикация, метаполя, зеркало атрибутов.
// Ошибки собираются в предупреждения и не роняют основную операцию.
func (m *materializer) applySideEffects(ctx context.Context, item *domain.CatalogItem, productID, variantID string) []string {
	log := logger.FromContext(ctx)

	effects := []struct {
		name string
		run  func() error
	}{
		{"inventory", func() error {
			return m.admin.SetInventory(ctx, variantID, 1)
		}},
		{"publish", func() error {
			return m.admin.PublishProduct(ctx, productID, m.cfg.SalesChannelID)
		}},
		{"metafields", func() error {
			return m.admin.SetMetafields(ctx, variantID, m.variantMetafields(item))
		}},
	}
	if m.stones != nil {
		effects = append(effects, struct {
			name string
			run  func() error
		}{"stone_mirror", func() error {
			return m.stones.Upsert(ctx, item, productID, variantID)
		}})
	}

	var (
		mu       sync.Mutex
		warnings []string
		wg       sync.WaitGroup
	)
	for _, effect := range effects {
		wg.Add(1)
		go func(name string, run func() error) {
			defer wg.Done()
			if err := run(); err != nil {
				log.Warn().Err(err).
					Str("effect", name).
					Str("variant_id", variantID).
					Msg("Побочный эффект материализации не удался")
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
			}
		}(effect.name, effect.run)
	}
	wg.Wait()

	return warnings
}

// variantMetafields собирает метаполя варианта: полный payload фида
// и производные отображаемые атрибуты.
func (m *materializer) variantMetafields(item *domain.CatalogItem) []platform.MetafieldInput {
	fields := []platform.MetafieldInput{
		{Namespace: metafieldNamespace, Key: "external_id", Type: "single_line_text_field", Value: item.ExternalID},
		{Namespace: metafieldNamespace, Key: "source", Type: "single_line_text_field", Value: string(item.Source)},
	}

	attrs := item.Attributes
	if attrs.Carat > 0 {
		fields = append(fields, platform.MetafieldInput{
			Namespace: metafieldNamespace, Key: "carat", Type: "number_decimal",
			Value: strconv.FormatFloat(attrs.Carat, 'f', -1, 64),
		})
	}
	for key, value := range map[string]string{
		"color":       attrs.Color,
		"clarity":     attrs.Clarity,
		"cut":         attrs.Cut,
		"shape":       attrs.Shape,
		"cert_type":   attrs.CertType,
		"cert_number": attrs.CertNumber,
	} {
		if value != "" {
			fields = append(fields, platform.MetafieldInput{
				Namespace: metafieldNamespace, Key: key, Type: "single_line_text_field", Value: value,
			})
		}
	}

	if len(item.Raw) > 0 {
		if payload, err := json.Marshal(item.Raw); err == nil {
			fields = append(fields, platform.MetafieldInput{
				Namespace: metafieldNamespace, Key: "payload", Type: "json", Value: string(payload),
			})
		}
	}

	return fields
}
