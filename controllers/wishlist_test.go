package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAddToWishlist(t *testing.T) {
	productID := uuid.New()
	body := map[string]string{"productId": productID.String()}

	t.Run("unknown product", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		w := serve(t, customerCaller(), http.MethodPost, "/wishlist", "/wishlist", body, AddToWishlist)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Product not found", errorMessage(t, w))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already saved returns existing item", func(t *testing.T) {
		mock := setupMockDB(t)
		who := customerCaller()
		itemID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT \* FROM "wishlist_items"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "product_id"}).AddRow(itemID, who.id, productID))

		w := serve(t, who, http.MethodPost, "/wishlist", "/wishlist", body, AddToWishlist)

		assert.Equal(t, http.StatusOK, w.Code)
		var got map[string]interface{}
		decode(t, w, &got)
		assert.Equal(t, itemID.String(), got["id"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new item", func(t *testing.T) {
		mock := setupMockDB(t)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT \* FROM "wishlist_items"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`INSERT INTO "wishlist_items"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		w := serve(t, customerCaller(), http.MethodPost, "/wishlist", "/wishlist", body, AddToWishlist)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing product id", func(t *testing.T) {
		setupMockDB(t)
		w := serve(t, customerCaller(), http.MethodPost, "/wishlist", "/wishlist", map[string]string{}, AddToWishlist)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := serve(t, anonymous, http.MethodPost, "/wishlist", "/wishlist", body, AddToWishlist)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRemoveFromWishlist(t *testing.T) {
	t.Run("not saved", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectExec(`DELETE FROM "wishlist_items"`).WillReturnResult(sqlmock.NewResult(0, 0))

		w := serve(t, customerCaller(), http.MethodDelete, "/wishlist/:productId", "/wishlist/"+uuid.NewString(), nil, RemoveFromWishlist)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Product not in wishlist", errorMessage(t, w))
	})

	t.Run("database failure", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectExec(`DELETE FROM "wishlist_items"`).WillReturnError(errors.New("connection reset"))

		w := serve(t, customerCaller(), http.MethodDelete, "/wishlist/:productId", "/wishlist/"+uuid.NewString(), nil, RemoveFromWishlist)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Database error", errorMessage(t, w))
	})

	t.Run("bad id", func(t *testing.T) {
		w := serve(t, customerCaller(), http.MethodDelete, "/wishlist/:productId", "/wishlist/nope", nil, RemoveFromWishlist)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid product ID format", errorMessage(t, w))
	})
}
