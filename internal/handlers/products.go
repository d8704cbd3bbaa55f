package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
	"github.com/sbilibin2017/gw-storefront/internal/services"
)

// ProductProvider defines the interface that the products service must implement.
type ProductProvider interface {
	Create(ctx context.Context, name string, price decimal.Decimal, category *string) (*models.ProductDB, error)
	List(ctx context.Context) ([]models.ProductDB, error)
	Get(ctx context.Context, id int64) (*models.ProductDB, error)
	Update(ctx context.Context, id int64, name *string, price *decimal.Decimal, category *string) (*models.ProductDB, error)
	Delete(ctx context.Context, id int64) error
}

// CreateProductRequest represents the JSON body for product creation
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	// Product name
	// required: true
	// example: Keyboard
	Name string `json:"name" validate:"required"`

	// Unit price as a decimal string or number
	// required: true
	// example: 49.99
	Price decimal.Decimal `json:"price" validate:"required"`

	// Optional category
	// example: peripherals
	Category *string `json:"category"`
}

// UpdateProductRequest represents the JSON body for a partial product update
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Category *string          `json:"category"`
}

// ProductErrorResponse represents an error response for the products resource
// swagger:model ProductErrorResponse
type ProductErrorResponse struct {
	// Error message
	// example: Product not found
	Error string `json:"error"`
}

// NewCreateProductHandler returns an HTTP handler creating a product.
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body handlers.CreateProductRequest true "Product"
// @Success 201 {object} models.ProductDB
// @Failure 400 {object} handlers.ProductErrorResponse "Name and price are required"
// @Router /products [post]
func NewCreateProductHandler(svc ProductProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Invalid request body"})
			return
		}

		if err := validate.Struct(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Name and price are required"})
			return
		}

		product, err := svc.Create(r.Context(), req.Name, req.Price, req.Category)
		if err != nil {
			switch err {
			case services.ErrInvalidPrice:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Price must not be negative"})
			default:
				logger.Log.Errorw("failed to create product", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(product)
	}
}

// NewListProductsHandler returns an HTTP handler listing all products.
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} models.ProductDB
// @Router /products [get]
func NewListProductsHandler(svc ProductProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("failed to list products", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Internal server error"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(products)
	}
}

// NewGetProductHandler returns an HTTP handler fetching one product by id.
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.ProductDB
// @Failure 400 {object} handlers.ProductErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.ProductErrorResponse "Product not found"
// @Router /products/{id} [get]
func NewGetProductHandler(svc ProductProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Invalid ID format"})
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			switch err {
			case services.ErrProductNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Product not found"})
			default:
				logger.Log.Errorw("failed to get product", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(product)
	}
}

// NewUpdateProductHandler returns an HTTP handler applying a partial update.
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body handlers.UpdateProductRequest true "Fields to update"
// @Success 200 {object} models.ProductDB
// @Failure 400 {object} handlers.ProductErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.ProductErrorResponse "Product not found"
// @Router /products/{id} [put]
func NewUpdateProductHandler(svc ProductProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Invalid ID format"})
			return
		}

		var req UpdateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Invalid request body"})
			return
		}

		product, err := svc.Update(r.Context(), id, req.Name, req.Price, req.Category)
		if err != nil {
			switch err {
			case services.ErrProductNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Product not found"})
			case services.ErrInvalidPrice:
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Price must not be negative"})
			default:
				logger.Log.Errorw("failed to update product", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(product)
	}
}

// NewDeleteProductHandler returns an HTTP handler removing one product by id.
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 204 "Product deleted"
// @Failure 400 {object} handlers.ProductErrorResponse "Invalid ID format"
// @Failure 404 {object} handlers.ProductErrorResponse "Product not found"
// @Router /products/{id} [delete]
func NewDeleteProductHandler(svc ProductProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Invalid ID format"})
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			switch err {
			case services.ErrProductNotFound:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Product not found"})
			default:
				logger.Log.Errorw("failed to delete product", "id", id, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ProductErrorResponse{Error: "Internal server error"})
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
