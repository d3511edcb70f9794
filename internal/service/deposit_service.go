package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/internal/repository"
	"example.com/gem-checkout/pkg/kafka"
	"example.com/gem-checkout/pkg/logger"
	"example.com/gem-checkout/pkg/metrics"
	"example.com/gem-checkout/pkg/outbox"
)

// paymentSKUPrefix — префикс SKU платёжных вариантов.
// SKU DEP-{sessionID}-{n} глобально уникален для пары (сессия, взнос):
// конкурентные сессии не пересекаются без распределённых блокировок.
const paymentSKUPrefix = "DEP-"

// paymentGateway — название шлюза в транзакциях леджера платформы.
const paymentGateway = "installments"

// PaymentSKU возвращает SKU платёжного варианта взноса.
func PaymentSKU(sessionID string, number int) string {
	return fmt.Sprintf("%s%s-%d", paymentSKUPrefix, sessionID, number)
}

// CreateSessionInput — вход оркестратора депозитных сессий.
// Items и TotalAmount опциональны: при их отсутствии корзина
// загружается из хранилища по CartID.
type CreateSessionInput struct {
	CartID      string
	CustomerID  string
	Items       []domain.CartItem
	TotalAmount *domain.Money
	PlanID      string // Пустой = активный план по умолчанию
}

// CreateSessionResult — результат создания депозитной сессии.
type CreateSessionResult struct {
	SessionID      string
	DraftOrderIDs  []string
	CheckoutURL    string
	PaymentAmounts []domain.Money
}

// CompleteResult — результат завершения первого взноса.
type CompleteResult struct {
	OrderID     string
	PaymentLink string
}

// DepositService — оркестрация депозитных сессий: создание сессии с
// графиком платежей, завершение первого взноса, оплата остатка.
type DepositService interface {
	// CreateDepositSession создаёт сессию рассрочки: считает взносы,
	// создаёт платёжный вариант и предварительный заказ на каждый взнос,
	// мостит корзину для первого взноса и атомарно сохраняет сессию
	// с графиком. Любая ошибка до сохранения не оставляет частичной сессии.
	CreateDepositSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error)

	// GetDepositSession возвращает сессию с графиком платежей.
	GetDepositSession(ctx context.Context, sessionID string) (*domain.DepositSession, error)

	// CompleteDepositOrder превращает предварительный заказ первого взноса
	// в реальный, записывает capture-транзакцию, метаполя статуса оплаты
	// и платёжную ссылку на остаток.
	CompleteDepositOrder(ctx context.Context, sessionID string) (*CompleteResult, error)

	// CompleteRemainingPayment записывает capture-транзакцию на остаток,
	// прочитанный из метаполей заказа, и переводит оплату в fully_paid.
	CompleteRemainingPayment(ctx context.Context, orderID string) error
}

// DepositConfig — настройки оркестратора.
type DepositConfig struct {
	// PaymentProductTitle — заголовок товара-контейнера платёжных вариантов.
	PaymentProductTitle string
}

// depositService — реализация DepositService.
type depositService struct {
	plans    repository.PlanRepository
	sessions repository.SessionRepository
	carts    repository.CartRepository
	admin    platform.AdminClient
	bridge   CartBridge
	cfg      DepositConfig

	now   func() time.Time
	newID func() string
}

// NewDepositService создаёт оркестратор депозитных сессий.
func NewDepositService(
	plans repository.PlanRepository,
	sessions repository.SessionRepository,
	carts repository.CartRepository,
	admin platform.AdminClient,
	bridge CartBridge,
	cfg DepositConfig,
) DepositService {
	if cfg.PaymentProductTitle == "" {
		cfg.PaymentProductTitle = "Installment Payment"
	}
	return &depositService{
		plans:    plans,
		sessions: sessions,
		carts:    carts,
		admin:    admin,
		bridge:   bridge,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateDepositSession создаёт сессию рассрочки.
func (s *depositService) CreateDepositSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	log := logger.FromContext(ctx)

	items, total, err := s.resolveCart(ctx, input)
	if err != nil {
		return nil, err
	}

	plan, err := s.resolvePlan(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	amounts, err := CalculateInstallments(plan, total)
	if err != nil {
		return nil, err
	}
	if len(amounts) != plan.Installments {
		// Единственный взнос при Installments > 1 невозможен, но
		// расхождение количества не фатально для создания сессии
		log.Warn().
			Str("plan_id", plan.ID).
			Int("configured", plan.Installments).
			Int("calculated", len(amounts)).
			Msg("Количество взносов разошлось с конфигурацией плана")
	}

	sessionID := s.newID()
	now := s.now()

	session := &domain.DepositSession{
		ID:                sessionID,
		CartID:            input.CartID,
		CustomerID:        input.CustomerID,
		PlanID:            plan.ID,
		Items:             items,
		TotalAmount:       total,
		Status:            domain.SessionStatusPendingDeposit,
		TotalInstallments: len(amounts),
		CreatedAt:         now,
		ExpiresAt:         domain.NewSessionExpiry(now),
	}

	paymentProduct, err := s.resolvePaymentProduct(ctx)
	if err != nil {
		metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	// Взносы обрабатываются строго по порядку: мост корзины нужен
	// только первому, но сессия сохраняется лишь после того, как
	// предварительные заказы существуют для всех взносов
	draftOrderIDs := make([]string, 0, len(amounts))
	for i, amount := range amounts {
		number := i + 1

		variant, err := s.materializePaymentVariant(ctx, paymentProduct.ID, sessionID, number, amount)
		if err != nil {
			metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("платёжный вариант взноса %d: %w", number, err)
		}

		draft, err := s.createProvisionalOrder(ctx, session, plan, variant.ID, number, len(amounts), amount)
		if err != nil {
			metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("предварительный заказ взноса %d: %w", number, err)
		}
		draftOrderIDs = append(draftOrderIDs, draft.ID)

		row := domain.ScheduleRow{
			ID:           s.newID(),
			SessionID:    sessionID,
			Number:       number,
			Type:         domain.InstallmentTypeInstallment,
			Amount:       amount,
			DraftOrderID: draft.ID,
			Status:       domain.ScheduleStatusPending,
		}
		if number == 1 {
			row.Type = domain.InstallmentTypeDeposit

			cart, err := s.bridge.AddVariantToCart(ctx, variant.ID, 1, map[string]string{
				"session_id":  sessionID,
				"installment": "1",
			})
			if err != nil {
				metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
				return nil, fmt.Errorf("корзина первого взноса: %w", err)
			}
			row.CheckoutURL = cart.CheckoutURL
			session.CheckoutURL = cart.CheckoutURL
		}

		session.Schedule = append(session.Schedule, row)
	}

	event, err := s.sessionCreatedEvent(session)
	if err != nil {
		metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := s.sessions.CreateWithSchedule(ctx, session, event); err != nil {
		metrics.DepositSessionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("сохранение сессии: %w", err)
	}

	metrics.DepositSessionsTotal.WithLabelValues("created").Inc()
	log.Info().
		Str("session_id", sessionID).
		Str("plan_id", plan.ID).
		Int("installments", len(amounts)).
		Str("total", total.Decimal()).
		Msg("Депозитная сессия создана")

	return &CreateSessionResult{
		SessionID:      sessionID,
		DraftOrderIDs:  draftOrderIDs,
		CheckoutURL:    session.CheckoutURL,
		PaymentAmounts: amounts,
	}, nil
}

// GetDepositSession возвращает сессию с графиком платежей.
func (s *depositService) GetDepositSession(ctx context.Context, sessionID string) (*domain.DepositSession, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// CompleteDepositOrder завершает первый взнос сессии.
func (s *depositService) CompleteDepositOrder(ctx context.Context, sessionID string) (*CompleteResult, error) {
	log := logger.FromContext(ctx)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	if !session.CanMarkDepositPaid() {
		return nil, domain.ErrAlreadyCompleted
	}
	if len(session.Schedule) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	order, err := s.admin.CompleteDraftOrder(ctx, session.Schedule[0].DraftOrderID)
	if err != nil {
		return nil, fmt.Errorf("завершение предварительного заказа: %w", err)
	}

	deposit := session.DepositAmount()
	remaining := session.RemainingAmount()

	if _, err := s.admin.CreateTransaction(ctx, order.ID, platform.TransactionInput{
		Kind:    platform.TransactionKindCapture,
		Amount:  deposit,
		Gateway: paymentGateway,
	}); err != nil {
		return nil, fmt.Errorf("capture-транзакция первого взноса: %w", err)
	}

	link, err := s.admin.CreatePaymentLink(ctx, platform.PaymentLinkInput{
		OrderID:     order.ID,
		Amount:      remaining,
		Description: fmt.Sprintf("Remaining balance for order %s", order.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("платёжная ссылка на остаток: %w", err)
	}

	if err := s.admin.SetMetafields(ctx, order.ID, []platform.MetafieldInput{
		{Namespace: metafieldNamespace, Key: "session_id", Type: "single_line_text_field", Value: session.ID},
		{Namespace: metafieldNamespace, Key: "payment_status", Type: "single_line_text_field", Value: string(domain.SessionStatusPartialPaid)},
		{Namespace: metafieldNamespace, Key: "deposit_amount", Type: "number_decimal", Value: deposit.Decimal()},
		{Namespace: metafieldNamespace, Key: "remaining_amount", Type: "number_decimal", Value: remaining.Decimal()},
		{Namespace: metafieldNamespace, Key: "currency", Type: "single_line_text_field", Value: session.TotalAmount.Currency},
		{Namespace: metafieldNamespace, Key: "remaining_payment_link", Type: "single_line_text_field", Value: link.URL},
	}); err != nil {
		return nil, fmt.Errorf("метаполя заказа: %w", err)
	}

	// Условное обновление статуса: конкурентное повторное завершение
	// получит ErrAlreadyCompleted и не запишет вторую транзакцию в БД
	if err := s.sessions.MarkDepositPaid(ctx, session.ID, s.now()); err != nil {
		return nil, err
	}

	metrics.DepositSessionsTotal.WithLabelValues("deposit_paid").Inc()
	log.Info().
		Str("session_id", session.ID).
		Str("order_id", order.ID).
		Str("deposit", deposit.Decimal()).
		Str("remaining", remaining.Decimal()).
		Msg("Первый взнос завершён")

	return &CompleteResult{OrderID: order.ID, PaymentLink: link.URL}, nil
}

// CompleteRemainingPayment завершает оплату остатка по заказу.
// Сумма остатка читается из метаполей заказа, а не из тела запроса:
// клиент не может оплатить остаток меньшей суммой.
func (s *depositService) CompleteRemainingPayment(ctx context.Context, orderID string) error {
	log := logger.FromContext(ctx)

	metafields, err := s.admin.GetOrderMetafields(ctx, orderID)
	if err != nil {
		return fmt.Errorf("метаполя заказа: %w", err)
	}

	sessionID := metafieldValue(metafields, "session_id")
	remainingRaw := metafieldValue(metafields, "remaining_amount")
	currency := metafieldValue(metafields, "currency")
	if sessionID == "" || remainingRaw == "" {
		return fmt.Errorf("%w: заказ %s без метаполей рассрочки", domain.ErrSessionNotFound, orderID)
	}
	if currency == "" {
		currency = "USD"
	}

	remaining, err := domain.ParseMoney(remainingRaw, currency)
	if err != nil {
		return fmt.Errorf("сумма остатка заказа %s: %w", orderID, err)
	}

	// Сначала условный переход статуса: повторный или конкурентный вызов
	// остановится здесь и не запишет вторую capture-транзакцию
	if err := s.sessions.MarkFullyPaid(ctx, sessionID, s.now()); err != nil {
		return err
	}

	if _, err := s.admin.CreateTransaction(ctx, orderID, platform.TransactionInput{
		Kind:    platform.TransactionKindCapture,
		Amount:  remaining,
		Gateway: paymentGateway,
	}); err != nil {
		return fmt.Errorf("capture-транзакция остатка: %w", err)
	}

	if err := s.admin.SetMetafields(ctx, orderID, []platform.MetafieldInput{
		{Namespace: metafieldNamespace, Key: "payment_status", Type: "single_line_text_field", Value: string(domain.SessionStatusFullyPaid)},
	}); err != nil {
		return fmt.Errorf("метаполя заказа: %w", err)
	}

	metrics.DepositSessionsTotal.WithLabelValues("fully_paid").Inc()
	log.Info().
		Str("session_id", sessionID).
		Str("order_id", orderID).
		Str("remaining", remaining.Decimal()).
		Msg("Оплата остатка завершена")

	return nil
}

// resolveCart возвращает позиции и сумму: из входа или из хранилища корзин.
func (s *depositService) resolveCart(ctx context.Context, input CreateSessionInput) ([]domain.CartItem, domain.Money, error) {
	if len(input.Items) > 0 && input.TotalAmount != nil {
		return input.Items, *input.TotalAmount, nil
	}

	cart, err := s.carts.GetCart(ctx, input.CartID)
	if err != nil {
		return nil, domain.Money{}, err
	}
	if cart.IsEmpty() {
		return nil, domain.Money{}, domain.ErrEmptyCart
	}
	return cart.Items, cart.TotalAmount, nil
}

// resolvePlan возвращает план по ID или активный план по умолчанию.
func (s *depositService) resolvePlan(ctx context.Context, planID string) (*domain.DepositPlan, error) {
	if planID != "" {
		return s.plans.GetByID(ctx, planID)
	}
	return s.plans.GetDefault(ctx)
}

// resolvePaymentProduct находит товар-контейнер платёжных вариантов.
func (s *depositService) resolvePaymentProduct(ctx context.Context) (*platform.Product, error) {
	product, err := s.admin.FindProductByMetafield(ctx, metafieldNamespace, "product", "installment_payment")
	if err == nil {
		return product, nil
	}
	if !platform.IsNotFound(err) {
		return nil, fmt.Errorf("поиск платёжного товара по метаполю: %w", err)
	}

	product, err = s.admin.FindProductByTitle(ctx, s.cfg.PaymentProductTitle)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: платёжный товар %q", domain.ErrProductNotFound, s.cfg.PaymentProductTitle)
		}
		return nil, fmt.Errorf("поиск платёжного товара по заголовку: %w", err)
	}
	return product, nil
}

// materializePaymentVariant создаёт одноразовый платёжный вариант взноса.
// При повторённом запросе вариант с тем же SKU переиспользуется
// и переоценивается вместо ошибки дубликата.
func (s *depositService) materializePaymentVariant(ctx context.Context, productID, sessionID string, number int, amount domain.Money) (*platform.Variant, error) {
	sku := PaymentSKU(sessionID, number)
	input := platform.VariantInput{
		SKU:         sku,
		OptionValue: sku,
		Price:       amount,
	}

	variant, err := s.admin.FindVariantBySKU(ctx, productID, sku)
	if err == nil {
		return s.admin.UpdateVariant(ctx, variant.ID, input)
	}
	if !platform.IsNotFound(err) {
		return nil, err
	}

	variant, err = s.admin.CreateVariant(ctx, productID, input)
	if err != nil {
		if platform.IsRejected(err) {
			if existing, findErr := s.admin.FindVariantBySKU(ctx, productID, sku); findErr == nil {
				return s.admin.UpdateVariant(ctx, existing.ID, input)
			}
		}
		return nil, err
	}
	return variant, nil
}

// createProvisionalOrder создаёт предварительный заказ одного взноса
// с метаполями контекста сессии.
func (s *depositService) createProvisionalOrder(ctx context.Context, session *domain.DepositSession, plan *domain.DepositPlan, variantID string, number, count int, amount domain.Money) (*platform.DraftOrder, error) {
	itemsJSON, err := json.Marshal(sessionItemsSummary(session.Items))
	if err != nil {
		return nil, fmt.Errorf("сериализация позиций корзины: %w", err)
	}

	return s.admin.CreateDraftOrder(ctx, platform.DraftOrderInput{
		Lines: []platform.DraftOrderLineInput{
			{VariantID: variantID, Quantity: 1},
		},
		Metafields: []platform.MetafieldInput{
			{Namespace: metafieldNamespace, Key: "session_id", Type: "single_line_text_field", Value: session.ID},
			{Namespace: metafieldNamespace, Key: "plan_id", Type: "single_line_text_field", Value: plan.ID},
			{Namespace: metafieldNamespace, Key: "plan_name", Type: "single_line_text_field", Value: plan.Name},
			{Namespace: metafieldNamespace, Key: "installment_number", Type: "number_integer", Value: fmt.Sprintf("%d", number)},
			{Namespace: metafieldNamespace, Key: "installment_count", Type: "number_integer", Value: fmt.Sprintf("%d", count)},
			{Namespace: metafieldNamespace, Key: "amount", Type: "number_decimal", Value: amount.Decimal()},
			{Namespace: metafieldNamespace, Key: "cart_items", Type: "json", Value: string(itemsJSON)},
		},
		Note: fmt.Sprintf("Installment %d of %d, session %s", number, count, session.ID),
	})
}

// sessionCreatedEvent собирает outbox-событие о создании сессии.
func (s *depositService) sessionCreatedEvent(session *domain.DepositSession) (*outbox.Outbox, error) {
	payload, err := json.Marshal(map[string]any{
		"session_id":   session.ID,
		"cart_id":      session.CartID,
		"customer_id":  session.CustomerID,
		"plan_id":      session.PlanID,
		"total_amount": session.TotalAmount.Decimal(),
		"currency":     session.TotalAmount.Currency,
		"installments": session.TotalInstallments,
		"status":       string(session.Status),
		"expires_at":   session.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("сериализация события сессии: %w", err)
	}

	return &outbox.Outbox{
		ID:            s.newID(),
		AggregateType: "deposit_session",
		AggregateID:   session.ID,
		EventType:     "deposit.session.created",
		Topic:         kafka.TopicDepositSessions,
		MessageKey:    session.ID,
		Payload:       payload,
	}, nil
}

// sessionItemsSummary — компактное представление позиций корзины
// для метаполя предварительного заказа.
func sessionItemsSummary(items []domain.CartItem) []map[string]any {
	summary := make([]map[string]any, len(items))
	for i, item := range items {
		summary[i] = map[string]any{
			"variant_id": item.VariantID,
			"title":      item.Title,
			"quantity":   item.Quantity,
			"price":      item.Price.Decimal(),
			"currency":   item.Price.Currency,
		}
	}
	return summary
}

// metafieldValue возвращает значение метаполя сервиса по ключу.
func metafieldValue(metafields []platform.Metafield, key string) string {
	for _, mf := range metafields {
		if mf.Namespace == metafieldNamespace && mf.Key == key {
			return mf.Value
		}
	}
	return ""
}
