package domain

import "time"

// SessionStatus — статус депозитной сессии.
// Переходы: pending_deposit -> partial_paid -> fully_paid. Других переходов нет.
// Истечение срока — мягкое свойство (ExpiresAt), не отдельный статус.
type SessionStatus string

const (
	// SessionStatusPendingDeposit — сессия создана, первый взнос не оплачен.
	SessionStatusPendingDeposit SessionStatus = "pending_deposit"

	// SessionStatusPartialPaid — первый взнос оплачен, остаток не оплачен.
	SessionStatusPartialPaid SessionStatus = "partial_paid"

	// SessionStatusFullyPaid — все взносы оплачены.
	SessionStatusFullyPaid SessionStatus = "fully_paid"
)

// ScheduleStatus — статус строки графика платежей.
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "pending"
	ScheduleStatusPaid    ScheduleStatus = "paid"
	ScheduleStatusFailed  ScheduleStatus = "failed"
)

// InstallmentType — тип взноса: первый взнос (deposit) или последующий.
type InstallmentType string

const (
	InstallmentTypeDeposit     InstallmentType = "deposit"
	InstallmentTypeInstallment InstallmentType = "installment"
)

// sessionTTL — срок действия депозитной сессии.
const sessionTTL = 24 * time.Hour

// CartItem — позиция корзины, снимок на момент создания сессии.
type CartItem struct {
	VariantID  string            // ID варианта на платформе
	Title      string            // Название позиции (денормализовано)
	Quantity   int32             // Количество
	Price      Money             // Цена за единицу
	Attributes map[string]string // Произвольные атрибуты строки корзины
}

// ScheduleRow — одна строка графика платежей депозитной сессии.
type ScheduleRow struct {
	ID           string          // Уникальный идентификатор строки (UUID)
	SessionID    string          // ID сессии
	Number       int             // Порядковый номер взноса (с 1)
	Type         InstallmentType // deposit для взноса №1, installment для остальных
	Amount       Money           // Сумма взноса
	DraftOrderID string          // ID предварительного заказа на платформе
	CheckoutURL  string          // Ссылка на оплату (только у взноса №1)
	Status       ScheduleStatus  // pending / paid / failed
	PaidAmount   Money           // Фактически оплаченная сумма
	PaidAt       *time.Time      // Время оплаты (nil = не оплачен)
}

// DepositSession — сессия оплаты заказа в рассрочку.
// Создаётся атомарно со строками графика; статусы меняет только
// сервис завершения, не UI.
type DepositSession struct {
	ID                string        // Уникальный идентификатор сессии (UUID)
	CartID            string        // ID корзины покупателя
	CustomerID        string        // ID покупателя (может быть пустым для гостя)
	PlanID            string        // ID применённого плана рассрочки
	Items             []CartItem    // Снимок позиций корзины
	TotalAmount       Money         // Полная сумма заказа
	Status            SessionStatus // Текущий статус
	TotalInstallments int           // Количество взносов
	PaidInstallments  int           // Количество оплаченных взносов
	CheckoutURL       string        // Ссылка на оплату первого взноса
	Schedule          []ScheduleRow // График платежей (len == TotalInstallments)
	CreatedAt         time.Time     // Дата создания
	ExpiresAt         time.Time     // Срок действия (CreatedAt + 24h)
}

// NewSessionExpiry возвращает срок действия сессии, созданной в момент t.
func NewSessionExpiry(t time.Time) time.Time {
	return t.Add(sessionTTL)
}

// IsExpired возвращает true, если срок действия сессии истёк.
// Истёкшая сессия не удаляется, но непригодна для завершения.
func (s *DepositSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DepositAmount возвращает сумму первого взноса.
func (s *DepositSession) DepositAmount() Money {
	if len(s.Schedule) == 0 {
		return Money{Currency: s.TotalAmount.Currency}
	}
	return s.Schedule[0].Amount
}

// RemainingAmount возвращает сумму, оставшуюся после первого взноса.
func (s *DepositSession) RemainingAmount() Money {
	return s.TotalAmount.Sub(s.DepositAmount())
}

// CanMarkDepositPaid проверяет, можно ли отметить первый взнос оплаченным.
func (s *DepositSession) CanMarkDepositPaid() bool {
	return s.Status == SessionStatusPendingDeposit
}

// MarkDepositPaid переводит сессию в partial_paid после оплаты первого взноса.
// Возвращает ErrAlreadyCompleted, если сессия уже не в pending_deposit.
func (s *DepositSession) MarkDepositPaid(paidAt time.Time) error {
	if !s.CanMarkDepositPaid() {
		return ErrAlreadyCompleted
	}
	s.Status = SessionStatusPartialPaid
	s.PaidInstallments = 1
	if len(s.Schedule) > 0 {
		s.Schedule[0].Status = ScheduleStatusPaid
		s.Schedule[0].PaidAmount = s.Schedule[0].Amount
		s.Schedule[0].PaidAt = &paidAt
	}
	return nil
}

// MarkFullyPaid переводит сессию в fully_paid после оплаты остатка.
// Возвращает ErrAlreadyCompleted, если сессия не в partial_paid.
func (s *DepositSession) MarkFullyPaid() error {
	if s.Status != SessionStatusPartialPaid {
		return ErrAlreadyCompleted
	}
	s.Status = SessionStatusFullyPaid
	s.PaidInstallments = s.TotalInstallments
	return nil
}
