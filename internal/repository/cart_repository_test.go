package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/domain"
)

func cartColumns() []string {
	return []string{"id", "customer_id", "total_amount", "currency", "created_at", "updated_at"}
}

func cartItemColumns() []string {
	return []string{"id", "cart_id", "variant_id", "title", "quantity", "price", "currency", "attributes", "created_at", "updated_at"}
}

// =====================================
// Тесты GetCart
// =====================================

func TestGetCart(t *testing.T) {
	t.Run("корзина со строками", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("cart-1", 1).
			WillReturnRows(mock.NewRows(cartColumns()).
				AddRow("cart-1", "cust-1", int64(435050), "USD", now, now))

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `cart_items`")).
			WithArgs("cart-1").
			WillReturnRows(mock.NewRows(cartItemColumns()).
				AddRow("item-1", "cart-1", "var-1", "1.52ct D VS1 Round", int32(1), int64(435050), "USD", nil, now, now))

		repo := NewCartRepository(gormDB, func() string { return "item-1" })
		cart, err := repo.GetCart(context.Background(), "cart-1")

		require.NoError(t, err)
		assert.Equal(t, "cart-1", cart.ID)
		assert.Equal(t, int64(435050), cart.TotalAmount.Amount)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "var-1", cart.Items[0].VariantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("корзина не найдена", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("missing", 1).
			WillReturnRows(mock.NewRows(cartColumns()))

		repo := NewCartRepository(gormDB, func() string { return "item-1" })
		_, err := repo.GetCart(context.Background(), "missing")

		assert.ErrorIs(t, err, domain.ErrCartNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты AddItem
// =====================================

func TestAddItem(t *testing.T) {
	t.Run("вставка строки и пересчёт итога в одной транзакции", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("cart-1", 1).
			WillReturnRows(mock.NewRows(cartColumns()).
				AddRow("cart-1", "cust-1", int64(0), "USD", now, now))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `cart_items`")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `carts`")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Повторное чтение после коммита
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("cart-1", 1).
			WillReturnRows(mock.NewRows(cartColumns()).
				AddRow("cart-1", "cust-1", int64(435050), "USD", now, now))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `cart_items`")).
			WithArgs("cart-1").
			WillReturnRows(mock.NewRows(cartItemColumns()).
				AddRow("item-1", "cart-1", "var-1", "1.52ct D VS1 Round", int32(1), int64(435050), "USD", nil, now, now))

		repo := NewCartRepository(gormDB, func() string { return "item-1" })
		cart, err := repo.AddItem(context.Background(), "cart-1", "cust-1", domain.CartItem{
			VariantID: "var-1",
			Title:     "1.52ct D VS1 Round",
			Quantity:  1,
			Price:     domain.Money{Currency: "USD", Amount: 435050},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(435050), cart.TotalAmount.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("новая корзина создаётся при первом добавлении", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("cart-new", 1).
			WillReturnRows(mock.NewRows(cartColumns()))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `carts`")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `cart_items`")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `carts`")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `carts`")).
			WithArgs("cart-new", 1).
			WillReturnRows(mock.NewRows(cartColumns()).
				AddRow("cart-new", "cust-1", int64(435050), "USD", now, now))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `cart_items`")).
			WithArgs("cart-new").
			WillReturnRows(mock.NewRows(cartItemColumns()))

		repo := NewCartRepository(gormDB, func() string { return "item-1" })
		_, err := repo.AddItem(context.Background(), "cart-new", "cust-1", domain.CartItem{
			VariantID: "var-1",
			Title:     "1.52ct D VS1 Round",
			Quantity:  1,
			Price:     domain.Money{Currency: "USD", Amount: 435050},
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты RemoveItem
// =====================================

func TestRemoveItem(t *testing.T) {
	t.Run("отсутствующая строка откатывает транзакцию", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `cart_items`")).
			WithArgs("cart-1", "var-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewCartRepository(gormDB, func() string { return "item-1" })
		_, err := repo.RemoveItem(context.Background(), "cart-1", "var-missing")

		assert.ErrorIs(t, err, domain.ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
