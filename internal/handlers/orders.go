package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-storefront/internal/jwt"
	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
	"github.com/sbilibin2017/gw-storefront/internal/services"
)

// OrderTokener defines only the token methods needed by the orders handlers.
type OrderTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// OrderProvider defines the interface that the orders service must implement.
type OrderProvider interface {
	Create(ctx context.Context, userID int64, status string, total decimal.Decimal) (*models.OrderDB, error)
	List(ctx context.Context) ([]models.OrderDB, error)
	Get(ctx context.Context, id int64) (*models.OrderDB, error)
	Update(ctx context.Context, id int64, status string, total decimal.Decimal) (*models.OrderDB, error)
	Delete(ctx context.Context, id int64) error
}

// CreateOrderRequest represents the JSON body for order creation.
// The owner is taken from the bearer token, not the body.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	// Order status
	// required: true
	// example: active
	Status string `json:"status" validate:"required,oneof=active complete"`

	// Order total
	// example: 0
	Total decimal.Decimal `json:"total"`
}

// UpdateOrderRequest represents the JSON body for an order update
// swagger:model UpdateOrderRequest
type UpdateOrderRequest struct {
	// Order status
	// required: true
	// example: complete
	Status string `json:"status" validate:"required,oneof=active complete"`

	// Order total
	// example: 50.00
	Total decimal.Decimal `json:"total"`
}

// OrderErrorResponse represents an error response for the orders resource
// swagger:model OrderErrorResponse
type OrderErrorResponse struct {
	// Error message
	// example: Order not found
	Error string `json:"error"`
}

// NewCreateOrderHandler returns an HTTP handler creating an order owned by
// the authenticated user.
// @Summary Create an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body handlers.CreateOrderRequest true "Order"
// @Success 201 {object} models.OrderDB
// @Failure 400 {object} handlers.OrderErrorResponse "Invalid request"
// @Failure 401 {object} handlers.OrderErrorResponse "Unauthorized"
// @Router /orders [post]
// @Security BearerAuth
func NewCreateOrderHandler(svc OrderProvider, tokener OrderTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenStr, err := tokener.GetTokenFromRequest(ctx, r)
		if err != nil {
			logger.Log.Errorw("failed to get token from request", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Unauthorized"})
			return
		}

		claims, err := tokener.GetClaims(ctx, tokenStr)
		if err != nil {
			logger.Log.Errorw("failed to get claims from token", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Unauthorized"})
			return
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Invalid request body"})
			return
		}

		if err := validate.Struct(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Status must be active or complete"})
			return
		}

		order, err := svc.Create(ctx, claims.UserID, req.Status, req.Total)
		if err != nil {
			switch err {
			case services.ErrInvalidOrderStatus:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Status must be active or complete"})
			default:
				logger.Log.Errorw("failed to create order", "user_id", claims.UserID, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(order)
	}
}

// NewListOrdersHandler returns an HTTP handler listing all orders.
// @Summary List orders
// @Tags orders
// @Produce json
// @Success 200 {array} models.OrderDB
// @Failure 401 {object} handlers.OrderErrorResponse "Unauthorized"
// @Router /orders [get]
// @Security BearerAuth
func NewListOrdersHandler(svc OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("failed to list orders", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Internal server error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(orders)
	}
}

// NewGetOrderHandler returns an HTTP handler fetching one order by id.
// @Summary Get an order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.OrderDB
// @Failure 400 {object} handlers.OrderErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.OrderErrorResponse "Order not found"
// @Router /orders/{id} [get]
// @Security BearerAuth
func NewGetOrderHandler(svc OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Invalid ID format"})
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			switch err {
			case services.ErrOrderNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Order not found"})
			default:
				logger.Log.Errorw("failed to get order", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(order)
	}
}

// NewUpdateOrderHandler returns an HTTP handler replacing status and total.
// @Summary Update an order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body handlers.UpdateOrderRequest true "New status and total"
// @Success 200 {object} models.OrderDB
// @Failure 400 {object} handlers.OrderErrorResponse "Invalid request"
// @Failure 404 {object} handlers.OrderErrorResponse "Order not found"
// @Router /orders/{id} [put]
// @Security BearerAuth
func NewUpdateOrderHandler(svc OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Invalid ID format"})
			return
		}

		var req UpdateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Invalid request body"})
			return
		}

		if err := validate.Struct(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Status must be active or complete"})
			return
		}

		order, err := svc.Update(r.Context(), id, req.Status, req.Total)
		if err != nil {
			switch err {
			case services.ErrOrderNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Order not found"})
			case services.ErrInvalidOrderStatus:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Status must be active or complete"})
			default:
				logger.Log.Errorw("failed to update order", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(order)
	}
}

// NewDeleteOrderHandler returns an HTTP handler removing one order by id.
// @Summary Delete an order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 204 "Order deleted"
// @Failure 400 {object} handlers.OrderErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.OrderErrorResponse "Order not found"
// @Router /orders/{id} [delete]
// @Security BearerAuth
func NewDeleteOrderHandler(svc OrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Invalid ID format"})
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			switch err {
			case services.ErrOrderNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Order not found"})
			default:
				logger.Log.Errorw("failed to delete order", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(OrderErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
