package service

import (
	"context"
	"time"

	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/pkg/logger"
	"example.com/gem-checkout/pkg/metrics"
)

const (
	// cartBridgeAttempts — максимум попыток создания корзины.
	cartBridgeAttempts = 3

	// cartBridgeDelay — фиксированная пауза между попытками.
	cartBridgeDelay = time.Second
)

// CartBridge создаёт корзины на публичном API платформы для
// материализованных вариантов.
//
// Публичный каталог отстаёт от административной записи: только что
// созданный вариант может быть ещё не виден. Такие ошибки (и только они)
// повторяются ограниченное число раз с фиксированной паузой; любая другая
// ошибка возвращается сразу.
type CartBridge interface {
	// AddVariantToCart создаёт корзину с одной строкой варианта.
	AddVariantToCart(ctx context.Context, variantID string, quantity int32, attributes map[string]string) (*platform.Cart, error)

	// CreateCartWithLines создаёт корзину из готового набора строк.
	// Используется для переноса содержимого истёкшей корзины покупателя.
	CreateCartWithLines(ctx context.Context, lines []platform.CartLineInput) (*platform.Cart, error)
}

// cartBridge — реализация CartBridge.
type cartBridge struct {
	storefront platform.StorefrontClient
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewCartBridge создаёт мост корзины.
func NewCartBridge(storefront platform.StorefrontClient) CartBridge {
	return &cartBridge{storefront: storefront, sleep: sleepContext}
}

// sleepContext ждёт d или отмены контекста.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AddVariantToCart создаёт корзину с одной строкой варианта.
func (b *cartBridge) AddVariantToCart(ctx context.Context, variantID string, quantity int32, attributes map[string]string) (*platform.Cart, error) {
	return b.CreateCartWithLines(ctx, []platform.CartLineInput{
		{MerchandiseID: variantID, Quantity: quantity, Attributes: attributes},
	})
}

// CreateCartWithLines создаёт корзину из готового набора строк,
// повторяя только ошибки отставания публичного каталога.
func (b *cartBridge) CreateCartWithLines(ctx context.Context, lines []platform.CartLineInput) (*platform.Cart, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= cartBridgeAttempts; attempt++ {
		cart, err := b.storefront.CreateCart(ctx, lines)
		if err == nil {
			return cart, nil
		}
		if !platform.IsNotYetVisible(err) {
			return nil, err
		}

		lastErr = err
		metrics.CartBridgeRetriesTotal.Inc()
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", cartBridgeAttempts).
			Msg("Вариант ещё не виден публичному каталогу")

		if attempt < cartBridgeAttempts {
			if err := b.sleep(ctx, cartBridgeDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}
