package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
	"github.com/sbilibin2017/gw-storefront/internal/services"
)

// OrderLineManager defines the interface that the order line service must implement.
type OrderLineManager interface {
	AddLine(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderProductDB, error)
	GetLinesForOrder(ctx context.Context, orderID int64) ([]models.OrderProductWithName, error)
	GetLine(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error)
	UpdateQuantity(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderProductDB, error)
	RemoveLine(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error)
}

// AddLineRequest represents the JSON body for adding a product to an order
// swagger:model AddLineRequest
type AddLineRequest struct {
	// Order ID
	// required: true
	// example: 5
	OrderID int64 `json:"order_id" validate:"required"`

	// Product ID
	// required: true
	// example: 9
	ProductID int64 `json:"product_id" validate:"required"`

	// Quantity to add
	// required: true
	// example: 2
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// UpdateLineRequest represents the JSON body for updating a line quantity
// swagger:model UpdateLineRequest
type UpdateLineRequest struct {
	// New quantity, must be positive
	// required: true
	// example: 3
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// OrderLineErrorResponse represents an error response for order lines
// swagger:model OrderLineErrorResponse
type OrderLineErrorResponse struct {
	// Error message
	// example: Order line not found
	Error string `json:"error"`
}

// writeLineError maps service errors to HTTP status codes. notFoundAs lets
// AddLine surface referential failures as 400 while lookups use 404.
func writeLineError(w http.ResponseWriter, err error, notFoundAs int) {
	switch err {
	case services.ErrOrderNotFound:
		w.WriteHeader(notFoundAs)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Order not found"})
	case services.ErrProductNotFound:
		w.WriteHeader(notFoundAs)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Product not found"})
	case services.ErrLineNotFound:
		w.WriteHeader(notFoundAs)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Order line not found"})
	case services.ErrOrderNotActive:
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Order is not active"})
	case services.ErrInvalidQuantity:
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Quantity must be a positive number"})
	default:
		logger.Log.Errorw("internal server error", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Internal server error"})
	}
}

// NewAddLineHandler returns an HTTP handler adding a product to an order.
// @Summary Add a product to an order
// @Description Adds a product to an active order. A repeated add for the same pair merges quantities and recomputes the snapshot price from the product's current unit price.
// @Tags order-products
// @Accept json
// @Produce json
// @Param request body handlers.AddLineRequest true "Line to add"
// @Success 201 {object} models.OrderProductDB
// @Failure 400 {object} handlers.OrderLineErrorResponse "Validation failure, unknown order/product, or inactive order"
// @Router /order-products [post]
func NewAddLineHandler(svc OrderLineManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddLineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid request body"})
			return
		}

		if err := validate.Struct(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "order_id, product_id and a positive quantity are required"})
			return
		}

		line, err := svc.AddLine(r.Context(), req.OrderID, req.ProductID, req.Quantity)
		if err != nil {
			writeLineError(w, err, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(line)
	}
}

// NewListOrderLinesHandler returns an HTTP handler listing the lines of an order.
// @Summary List the products of an order
// @Tags order-products
// @Produce json
// @Param orderId path int true "Order ID"
// @Success 200 {array} models.OrderProductWithName "Possibly empty"
// @Failure 400 {object} handlers.OrderLineErrorResponse "Invalid order ID format"
// @Router /order-products/order/{orderId} [get]
func NewListOrderLinesHandler(svc OrderLineManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid order ID format"})
			return
		}

		lines, err := svc.GetLinesForOrder(r.Context(), orderID)
		if err != nil {
			logger.Log.Errorw("failed to list order lines", "order_id", orderID, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Internal server error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lines)
	}
}

// NewGetLineHandler returns an HTTP handler fetching one line of an order.
// @Summary Get one product of an order
// @Tags order-products
// @Produce json
// @Param orderId path int true "Order ID"
// @Param productId path int true "Product ID"
// @Success 200 {object} models.OrderProductDB
// @Failure 400 {object} handlers.OrderLineErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.OrderLineErrorResponse "Order line not found"
// @Router /order-products/order/{orderId}/product/{productId} [get]
func NewGetLineHandler(svc OrderLineManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err1 := parseIDParam(r, "orderId")
		productID, err2 := parseIDParam(r, "productId")
		if err1 != nil || err2 != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid ID format"})
			return
		}

		line, err := svc.GetLine(r.Context(), orderID, productID)
		if err != nil {
			writeLineError(w, err, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(line)
	}
}

// NewUpdateLineHandler returns an HTTP handler changing a line's quantity.
// @Summary Update the quantity of a product in an order
// @Description Sets the new quantity and recomputes the snapshot price from the product's current unit price. Zero is rejected, not treated as removal.
// @Tags order-products
// @Accept json
// @Produce json
// @Param orderId path int true "Order ID"
// @Param productId path int true "Product ID"
// @Param request body handlers.UpdateLineRequest true "New quantity"
// @Success 200 {object} models.OrderProductDB
// @Failure 400 {object} handlers.OrderLineErrorResponse "Invalid quantity or ID format"
// @Failure 404 {object} handlers.OrderLineErrorResponse "Order line or product not found"
// @Router /order-products/order/{orderId}/product/{productId} [put]
func NewUpdateLineHandler(svc OrderLineManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err1 := parseIDParam(r, "orderId")
		productID, err2 := parseIDParam(r, "productId")
		if err1 != nil || err2 != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid ID format"})
			return
		}

		var req UpdateLineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid request body"})
			return
		}

		if err := validate.Struct(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Quantity must be a positive number"})
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), orderID, productID, req.Quantity)
		if err != nil {
			writeLineError(w, err, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(line)
	}
}

// NewRemoveLineHandler returns an HTTP handler removing a product from an order.
// @Summary Remove a product from an order
// @Tags order-products
// @Produce json
// @Param orderId path int true "Order ID"
// @Param productId path int true "Product ID"
// @Success 204 "Line removed"
// @Failure 400 {object} handlers.OrderLineErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.OrderLineErrorResponse "Order line not found"
// @Router /order-products/order/{orderId}/product/{productId} [delete]
func NewRemoveLineHandler(svc OrderLineManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err1 := parseIDParam(r, "orderId")
		productID, err2 := parseIDParam(r, "productId")
		if err1 != nil || err2 != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OrderLineErrorResponse{Error: "Invalid ID format"})
			return
		}

		if _, err := svc.RemoveLine(r.Context(), orderID, productID); err != nil {
			writeLineError(w, err, http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
