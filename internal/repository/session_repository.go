package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/pkg/outbox"
)

// SessionRepository определяет интерфейс для работы с депозитными сессиями.
type SessionRepository interface {
	// CreateWithSchedule создаёт сессию, все строки графика платежей и
	// запись outbox в одной транзакции. Частичная сессия невозможна:
	// при любой ошибке все вставки откатываются.
	CreateWithSchedule(ctx context.Context, session *domain.DepositSession, event *outbox.Outbox) error

	// GetByID возвращает сессию с графиком платежей.
	GetByID(ctx context.Context, sessionID string) (*domain.DepositSession, error)

	// GetByDraftOrderID возвращает сессию по ID предварительного заказа
	// любого из её взносов.
	GetByDraftOrderID(ctx context.Context, draftOrderID string) (*domain.DepositSession, error)

	// MarkDepositPaid переводит сессию pending_deposit -> partial_paid
	// и помечает первую строку графика оплаченной. Условное обновление:
	// конкурентный повторный вызов получает ErrAlreadyCompleted.
	MarkDepositPaid(ctx context.Context, sessionID string, paidAt time.Time) error

	// MarkFullyPaid переводит сессию partial_paid -> fully_paid.
	// Условное обновление, как MarkDepositPaid.
	MarkFullyPaid(ctx context.Context, sessionID string, paidAt time.Time) error
}

// SessionModel — GORM модель для таблицы deposit_sessions.
type SessionModel struct {
	ID                string          `gorm:"column:id;type:varchar(36);primaryKey"`
	CartID            string          `gorm:"column:cart_id;type:varchar(64);not null;index"`
	CustomerID        string          `gorm:"column:customer_id;type:varchar(64)"`
	PlanID            string          `gorm:"column:plan_id;type:varchar(36);not null"`
	Items             []byte          `gorm:"column:items;type:json;not null"`
	TotalAmount       int64           `gorm:"column:total_amount;not null"`
	Currency          string          `gorm:"column:currency;type:varchar(3);not null"`
	Status            string          `gorm:"column:status;type:varchar(20);not null;index"`
	TotalInstallments int             `gorm:"column:total_installments;not null"`
	PaidInstallments  int             `gorm:"column:paid_installments;not null;default:0"`
	CheckoutURL       string          `gorm:"column:checkout_url;type:text"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt         time.Time       `gorm:"column:expires_at;not null;index"`
	Schedule          []ScheduleModel `gorm:"foreignKey:SessionID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (SessionModel) TableName() string {
	return "deposit_sessions"
}

// ScheduleModel — GORM модель для таблицы payment_schedules.
type ScheduleModel struct {
	ID           string     `gorm:"column:id;type:varchar(36);primaryKey"`
	SessionID    string     `gorm:"column:session_id;type:varchar(36);not null;index"`
	Number       int        `gorm:"column:number;not null"`
	Type         string     `gorm:"column:type;type:varchar(20);not null"`
	Amount       int64      `gorm:"column:amount;not null"`
	Currency     string     `gorm:"column:currency;type:varchar(3);not null"`
	DraftOrderID string     `gorm:"column:draft_order_id;type:varchar(64);index"`
	CheckoutURL  string     `gorm:"column:checkout_url;type:text"`
	Status       string     `gorm:"column:status;type:varchar(20);not null"`
	PaidAmount   int64      `gorm:"column:paid_amount;not null;default:0"`
	PaidAt       *time.Time `gorm:"column:paid_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ScheduleModel) TableName() string {
	return "payment_schedules"
}

// cartItemJSON — формат снимка позиции корзины в JSON-колонке items.
type cartItemJSON struct {
	VariantID  string            `json:"variant_id"`
	Title      string            `json:"title"`
	Quantity   int32             `json:"quantity"`
	Price      int64             `json:"price"`
	Currency   string            `json:"currency"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func itemsToJSON(items []domain.CartItem) ([]byte, error) {
	wire := make([]cartItemJSON, len(items))
	for i, item := range items {
		wire[i] = cartItemJSON{
			VariantID:  item.VariantID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			Price:      item.Price.Amount,
			Currency:   item.Price.Currency,
			Attributes: item.Attributes,
		}
	}
	return json.Marshal(wire)
}

func itemsFromJSON(data []byte) ([]domain.CartItem, error) {
	var wire []cartItemJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, len(wire))
	for i, w := range wire {
		items[i] = domain.CartItem{
			VariantID:  w.VariantID,
			Title:      w.Title,
			Quantity:   w.Quantity,
			Price:      domain.Money{Currency: w.Currency, Amount: w.Price},
			Attributes: w.Attributes,
		}
	}
	return items, nil
}

// toDomain конвертирует GORM модель сессии в доменную сущность.
func (m *SessionModel) toDomain() (*domain.DepositSession, error) {
	items, err := itemsFromJSON(m.Items)
	if err != nil {
		return nil, fmt.Errorf("разбор снимка корзины сессии %s: %w", m.ID, err)
	}

	session := &domain.DepositSession{
		ID:                m.ID,
		CartID:            m.CartID,
		CustomerID:        m.CustomerID,
		PlanID:            m.PlanID,
		Items:             items,
		TotalAmount:       domain.Money{Currency: m.Currency, Amount: m.TotalAmount},
		Status:            domain.SessionStatus(m.Status),
		TotalInstallments: m.TotalInstallments,
		PaidInstallments:  m.PaidInstallments,
		CheckoutURL:       m.CheckoutURL,
		CreatedAt:         m.CreatedAt,
		ExpiresAt:         m.ExpiresAt,
		Schedule:          make([]domain.ScheduleRow, len(m.Schedule)),
	}

	for i, row := range m.Schedule {
		session.Schedule[i] = *row.toDomain()
	}

	return session, nil
}

// toDomain конвертирует GORM модель строки графика в доменную сущность.
func (m *ScheduleModel) toDomain() *domain.ScheduleRow {
	return &domain.ScheduleRow{
		ID:           m.ID,
		SessionID:    m.SessionID,
		Number:       m.Number,
		Type:         domain.InstallmentType(m.Type),
		Amount:       domain.Money{Currency: m.Currency, Amount: m.Amount},
		DraftOrderID: m.DraftOrderID,
		CheckoutURL:  m.CheckoutURL,
		Status:       domain.ScheduleStatus(m.Status),
		PaidAmount:   domain.Money{Currency: m.Currency, Amount: m.PaidAmount},
		PaidAt:       m.PaidAt,
	}
}

// sessionModelFromDomain конвертирует доменную сущность сессии в GORM модель.
func sessionModelFromDomain(s *domain.DepositSession) (*SessionModel, error) {
	items, err := itemsToJSON(s.Items)
	if err != nil {
		return nil, fmt.Errorf("сериализация снимка корзины: %w", err)
	}

	model := &SessionModel{
		ID:                s.ID,
		CartID:            s.CartID,
		CustomerID:        s.CustomerID,
		PlanID:            s.PlanID,
		Items:             items,
		TotalAmount:       s.TotalAmount.Amount,
		Currency:          s.TotalAmount.Currency,
		Status:            string(s.Status),
		TotalInstallments: s.TotalInstallments,
		PaidInstallments:  s.PaidInstallments,
		CheckoutURL:       s.CheckoutURL,
		CreatedAt:         s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
		Schedule:          make([]ScheduleModel, len(s.Schedule)),
	}

	for i, row := range s.Schedule {
		model.Schedule[i] = *scheduleModelFromDomain(&row)
	}

	return model, nil
}

// scheduleModelFromDomain конвертирует доменную строку графика в GORM модель.
func scheduleModelFromDomain(r *domain.ScheduleRow) *ScheduleModel {
	return &ScheduleModel{
		ID:           r.ID,
		SessionID:    r.SessionID,
		Number:       r.Number,
		Type:         string(r.Type),
		Amount:       r.Amount.Amount,
		Currency:     r.Amount.Currency,
		DraftOrderID: r.DraftOrderID,
		CheckoutURL:  r.CheckoutURL,
		Status:       string(r.Status),
		PaidAmount:   r.PaidAmount.Amount,
		PaidAt:       r.PaidAt,
	}
}

// sessionRepository — GORM реализация SessionRepository.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository создаёт новый репозиторий депозитных сессий.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateWithSchedule создаёт сессию, график и запись outbox в одной транзакции.
func (r *sessionRepository) CreateWithSchedule(ctx context.Context, session *domain.DepositSession, event *outbox.Outbox) error {
	model, err := sessionModelFromDomain(session)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Строки графика создаются через ассоциацию вместе с сессией
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(outbox.ModelFromDomain(event)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	session.CreatedAt = model.CreatedAt
	return nil
}

// GetByID возвращает сессию с графиком платежей, упорядоченным по номеру взноса.
func (r *sessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.DepositSession, error) {
	var model SessionModel

	if err := r.db.WithContext(ctx).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Where("id = ?", sessionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return model.toDomain()
}

// GetByDraftOrderID возвращает сессию по ID предварительного заказа
// любого из её взносов.
func (r *sessionRepository) GetByDraftOrderID(ctx context.Context, draftOrderID string) (*domain.DepositSession, error) {
	var row ScheduleModel

	if err := r.db.WithContext(ctx).
		Where("draft_order_id = ?", draftOrderID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return r.GetByID(ctx, row.SessionID)
}

// MarkDepositPaid переводит сессию в partial_paid условным обновлением.
// WHERE по текущему статусу защищает от двойного списания при
// конкурентных вызовах завершения: второй вызов не затронет строк.
func (r *sessionRepository) MarkDepositPaid(ctx context.Context, sessionID string, paidAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SessionModel{}).
			Where("id = ? AND status = ?", sessionID, string(domain.SessionStatusPendingDeposit)).
			Updates(map[string]any{
				"status":            string(domain.SessionStatusPartialPaid),
				"paid_installments": 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyNoRows(tx, sessionID)
		}

		return tx.Model(&ScheduleModel{}).
			Where("session_id = ? AND number = ?", sessionID, 1).
			Updates(map[string]any{
				"status":      string(domain.ScheduleStatusPaid),
				"paid_amount": gorm.Expr("amount"),
				"paid_at":     paidAt,
			}).Error
	})
}

// MarkFullyPaid переводит сессию в fully_paid условным обновлением.
func (r *sessionRepository) MarkFullyPaid(ctx context.Context, sessionID string, paidAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SessionModel{}).
			Where("id = ? AND status = ?", sessionID, string(domain.SessionStatusPartialPaid)).
			Updates(map[string]any{
				"status":            string(domain.SessionStatusFullyPaid),
				"paid_installments": gorm.Expr("total_installments"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyNoRows(tx, sessionID)
		}

		return tx.Model(&ScheduleModel{}).
			Where("session_id = ? AND status = ?", sessionID, string(domain.ScheduleStatusPending)).
			Updates(map[string]any{
				"status":      string(domain.ScheduleStatusPaid),
				"paid_amount": gorm.Expr("amount"),
				"paid_at":     paidAt,
			}).Error
	})
}

// classifyNoRows различает отсутствие сессии и неподходящий статус,
// когда условное обновление не затронуло строк.
func (r *sessionRepository) classifyNoRows(tx *gorm.DB, sessionID string) error {
	var count int64
	if err := tx.Model(&SessionModel{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrSessionNotFound
	}
	return domain.ErrAlreadyCompleted
}
