// Package repository содержит unit тесты репозиториев сервиса.
package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/gem-checkout/internal/domain"
)

// =====================================
// Вспомогательные функции
// =====================================

// setupMockDB создаёт мок базы данных с GORM.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Ошибка создания sqlmock")

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Ошибка инициализации GORM")

	return gormDB, mock, func() { _ = db.Close() }
}

// planColumns — колонки таблицы deposit_plans для sqlmock.
func planColumns() []string {
	return []string{
		"id", "name", "type", "percentage", "fixed_amount", "currency",
		"installments", "min_deposit", "max_deposit",
		"is_default", "is_active", "created_at", "updated_at",
	}
}

func planRow(mock sqlmock.Sqlmock, id, name, planType string, percentage float64, isDefault bool) *sqlmock.Rows {
	now := time.Now()
	return mock.NewRows(planColumns()).
		AddRow(id, name, planType, percentage, int64(0), "USD", 3, int64(0), int64(0), isDefault, true, now, now)
}

// =====================================
// Тесты GetByID
// =====================================

func TestPlanGetByID(t *testing.T) {
	tests := []struct {
		name        string
		planID      string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name:   "план найден",
			planID: "plan-30pct",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
					WithArgs("plan-30pct", 1).
					WillReturnRows(planRow(mock, "plan-30pct", "Депозит 30%", "PERCENTAGE", 30, true))
			},
			expectedErr: nil,
		},
		{
			name:   "план не найден",
			planID: "missing",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
					WithArgs("missing", 1).
					WillReturnRows(mock.NewRows(planColumns()))
			},
			expectedErr: domain.ErrPlanNotFound,
		},
		{
			name:   "ошибка БД",
			planID: "plan-30pct",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
					WithArgs("plan-30pct", 1).
					WillReturnError(sql.ErrConnDone)
			},
			expectedErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			repo := NewPlanRepository(gormDB)
			plan, err := repo.GetByID(context.Background(), tt.planID)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, plan)
			} else {
				require.NoError(t, err)
				require.NotNil(t, plan)
				assert.Equal(t, tt.planID, plan.ID)
				assert.Equal(t, domain.PlanTypePercentage, plan.Type)
				assert.Equal(t, 30.0, plan.Percentage)
				assert.Equal(t, 3, plan.Installments)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// =====================================
// Тесты GetDefault
// =====================================

func TestPlanGetDefault(t *testing.T) {
	t.Run("возвращает активный план по умолчанию", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
			WithArgs(true, true, 1).
			WillReturnRows(planRow(mock, "plan-default", "Депозит 30%", "PERCENTAGE", 30, true))

		repo := NewPlanRepository(gormDB)
		plan, err := repo.GetDefault(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "plan-default", plan.ID)
		assert.True(t, plan.IsDefault)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("нет плана по умолчанию", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
			WithArgs(true, true, 1).
			WillReturnRows(mock.NewRows(planColumns()))

		repo := NewPlanRepository(gormDB)
		_, err := repo.GetDefault(context.Background())

		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты ListActive
// =====================================

func TestPlanListActive(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	rows := mock.NewRows(planColumns()).
		AddRow("plan-default", "Депозит 30%", "PERCENTAGE", 30.0, int64(0), "USD", 3, int64(0), int64(0), true, true, now, now).
		AddRow("plan-fixed", "Фиксированный депозит", "FIXED", 0.0, int64(150000), "USD", 2, int64(0), int64(0), false, true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deposit_plans`")).
		WithArgs(true).
		WillReturnRows(rows)

	repo := NewPlanRepository(gormDB)
	plans, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.True(t, plans[0].IsDefault)
	assert.Equal(t, domain.PlanTypeFixed, plans[1].Type)
	assert.Equal(t, int64(150000), plans[1].FixedAmount.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
