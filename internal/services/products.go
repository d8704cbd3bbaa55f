package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
)

// Error variables
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// ProductReader defines read operations for products.
type ProductReader interface {
	GetAll(ctx context.Context) ([]models.ProductDB, error)
	GetByID(ctx context.Context, id int64) (*models.ProductDB, error)
}

// ProductWriter defines write operations for products.
type ProductWriter interface {
	Save(ctx context.Context, name string, price decimal.Decimal, category *string) (*models.ProductDB, error)
	Update(ctx context.Context, id int64, name *string, price *decimal.Decimal, category *string) (*models.ProductDB, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// ProductCache caches product rows for the read path.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*models.ProductDB, error)
	Set(ctx context.Context, product *models.ProductDB) error
	Invalidate(ctx context.Context, id int64) error
}

// ProductService exposes the products resource. Get goes through the cache;
// writes invalidate it. Cache failures are logged and never fail the request.
type ProductService struct {
	reader ProductReader
	writer ProductWriter
	cache  ProductCache
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(reader ProductReader, writer ProductWriter, cache ProductCache) *ProductService {
	return &ProductService{reader: reader, writer: writer, cache: cache}
}

// Create inserts a new product.
func (s *ProductService) Create(ctx context.Context, name string, price decimal.Decimal, category *string) (*models.ProductDB, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product, err := s.writer.Save(ctx, name, price, category)
	if err != nil {
		logger.Log.Errorw("failed to create product", "name", name, "error", err)
		return nil, err
	}
	return product, nil
}

// List returns all products.
func (s *ProductService) List(ctx context.Context) ([]models.ProductDB, error) {
	products, err := s.reader.GetAll(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list products", "error", err)
		return nil, err
	}
	return products, nil
}

// Get returns a product by id, consulting the cache first.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.ProductDB, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Log.Warnw("product cache read failed", "id", id, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	product, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get product", "id", id, "error", err)
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			logger.Log.Warnw("product cache write failed", "id", id, "error", err)
		}
	}

	return product, nil
}

// Update applies a partial update and drops the cached row.
func (s *ProductService) Update(ctx context.Context, id int64, name *string, price *decimal.Decimal, category *string) (*models.ProductDB, error) {
	if price != nil && price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product, err := s.writer.Update(ctx, id, name, price, category)
	if err != nil {
		logger.Log.Errorw("failed to update product", "id", id, "error", err)
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logger.Log.Warnw("product cache invalidation failed", "id", id, "error", err)
		}
	}

	return product, nil
}

// Delete removes a product and drops the cached row.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	affected, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete product", "id", id, "error", err)
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logger.Log.Warnw("product cache invalidation failed", "id", id, "error", err)
		}
	}

	return nil
}
