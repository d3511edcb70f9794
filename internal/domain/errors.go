package domain

import "errors"

// Доменные ошибки сервиса.
// Используются для передачи бизнес-ошибок между слоями приложения;
// обработчики HTTP транслируют их в статус-коды.
var (
	// ErrPlanNotFound возвращается, когда план рассрочки не найден
	// или нет активного плана по умолчанию.
	ErrPlanNotFound = errors.New("план рассрочки не найден")

	// ErrSessionNotFound возвращается, когда депозитная сессия не найдена.
	ErrSessionNotFound = errors.New("депозитная сессия не найдена")

	// ErrSessionExpired возвращается при обращении к истёкшей сессии.
	ErrSessionExpired = errors.New("срок действия депозитной сессии истёк")

	// ErrCartNotFound возвращается, когда корзина не найдена.
	ErrCartNotFound = errors.New("корзина не найдена")

	// ErrProductNotFound возвращается, когда контейнерный товар
	// для источника каталога не найден на платформе.
	ErrProductNotFound = errors.New("товар-контейнер не найден на платформе")

	// ErrItemNotFound возвращается, когда позиция внешнего каталога не найдена.
	ErrItemNotFound = errors.New("позиция каталога не найдена")

	// ErrInvalidPlan возвращается при некорректной конфигурации плана:
	// PERCENTAGE без процента или FIXED без фиксированной суммы.
	ErrInvalidPlan = errors.New("некорректная конфигурация плана рассрочки")

	// ErrUnsupportedPlanType возвращается для плана типа HYBRID:
	// правило разбиения для него не определено продуктом.
	ErrUnsupportedPlanType = errors.New("тип плана не поддерживается")

	// ErrInvalidAmount возвращается при нулевой или отрицательной сумме заказа.
	ErrInvalidAmount = errors.New("сумма заказа должна быть больше нуля")

	// ErrEmptyCart возвращается при попытке создать сессию по пустой корзине.
	ErrEmptyCart = errors.New("корзина не содержит позиций")

	// ErrAlreadyCompleted возвращается при повторной попытке завершить
	// уже оплаченный этап сессии.
	ErrAlreadyCompleted = errors.New("этап сессии уже оплачен")

	// ErrNotConfigured возвращается, когда обязательная внешняя зависимость
	// (БД, платформа) не сконфигурирована.
	ErrNotConfigured = errors.New("внешняя зависимость не сконфигурирована")
)
