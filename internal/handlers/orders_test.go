package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-storefront/internal/jwt"
	"github.com/sbilibin2017/gw-storefront/internal/models"
	"github.com/sbilibin2017/gw-storefront/internal/services"
)

type fakeOrderProvider struct {
	order  *models.OrderDB
	orders []models.OrderDB
	err    error

	gotUserID int64
	gotStatus string
}

func (f *fakeOrderProvider) Create(ctx context.Context, userID int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	f.gotUserID, f.gotStatus = userID, status
	return f.order, f.err
}

func (f *fakeOrderProvider) List(ctx context.Context) ([]models.OrderDB, error) {
	return f.orders, f.err
}

func (f *fakeOrderProvider) Get(ctx context.Context, id int64) (*models.OrderDB, error) {
	return f.order, f.err
}

func (f *fakeOrderProvider) Update(ctx context.Context, id int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	f.gotStatus = status
	return f.order, f.err
}

func (f *fakeOrderProvider) Delete(ctx context.Context, id int64) error {
	return f.err
}

type fakeOrderTokener struct {
	userID   int64
	tokenErr error
	claimErr error
}

func (f *fakeOrderTokener) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "token", nil
}

func (f *fakeOrderTokener) GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return &jwt.Claims{UserID: f.userID}, nil
}

func newOrderRouter(svc OrderProvider, tokener OrderTokener) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/orders", NewCreateOrderHandler(svc, tokener))
	router.Get("/orders", NewListOrdersHandler(svc))
	router.Get("/orders/{id}", NewGetOrderHandler(svc))
	router.Put("/orders/{id}", NewUpdateOrderHandler(svc))
	router.Delete("/orders/{id}", NewDeleteOrderHandler(svc))
	return router
}

func sampleOrder() *models.OrderDB {
	return &models.OrderDB{
		OrderID: 5,
		UserID:  1,
		Status:  models.OrderStatusActive,
		Total:   decimal.Zero,
	}
}

func TestCreateOrderHandler(t *testing.T) {
	t.Run("owner comes from the bearer token", func(t *testing.T) {
		svc := &fakeOrderProvider{order: sampleOrder()}
		router := newOrderRouter(svc, &fakeOrderTokener{userID: 1})

		body := `{"status":"active","total":0}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(1), svc.gotUserID)
		assert.Equal(t, models.OrderStatusActive, svc.gotStatus)
	})

	t.Run("missing token", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{}, &fakeOrderTokener{tokenErr: errors.New("no header")})

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"status":"active"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{}, &fakeOrderTokener{claimErr: errors.New("bad token")})

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"status":"active"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown status rejected by validation", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{}, &fakeOrderTokener{userID: 1})

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"status":"pending"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetOrderHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{order: sampleOrder()}, &fakeOrderTokener{})

		req := httptest.NewRequest(http.MethodGet, "/orders/5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var order models.OrderDB
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
		assert.Equal(t, int64(5), order.OrderID)
	})

	t.Run("not found", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{err: services.ErrOrderNotFound}, &fakeOrderTokener{})

		req := httptest.NewRequest(http.MethodGet, "/orders/999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateOrderHandler(t *testing.T) {
	t.Run("completes an order", func(t *testing.T) {
		svc := &fakeOrderProvider{order: sampleOrder()}
		router := newOrderRouter(svc, &fakeOrderTokener{})

		body := `{"status":"complete","total":"50.00"}`
		req := httptest.NewRequest(http.MethodPut, "/orders/5", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.OrderStatusComplete, svc.gotStatus)
	})

	t.Run("unknown status", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{}, &fakeOrderTokener{})

		req := httptest.NewRequest(http.MethodPut, "/orders/5", strings.NewReader(`{"status":"cancelled"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteOrderHandler(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{}, &fakeOrderTokener{})

		req := httptest.NewRequest(http.MethodDelete, "/orders/5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		router := newOrderRouter(&fakeOrderProvider{err: services.ErrOrderNotFound}, &fakeOrderTokener{})

		req := httptest.NewRequest(http.MethodDelete, "/orders/999", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
