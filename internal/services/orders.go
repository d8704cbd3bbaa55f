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
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderReader defines read operations for orders.
type OrderReader interface {
	GetAll(ctx context.Context) ([]models.OrderDB, error)
	GetByID(ctx context.Context, id int64) (*models.OrderDB, error)
}

// OrderWriter defines write operations for orders.
type OrderWriter interface {
	Save(ctx context.Context, userID int64, status string, total decimal.Decimal) (*models.OrderDB, error)
	Update(ctx context.Context, id int64, status string, total decimal.Decimal) (*models.OrderDB, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// OrderService exposes the orders resource.
type OrderService struct {
	reader OrderReader
	writer OrderWriter
}

// NewOrderService creates a new OrderService.
func NewOrderService(reader OrderReader, writer OrderWriter) *OrderService {
	return &OrderService{reader: reader, writer: writer}
}

func validStatus(status string) bool {
	return status == models.OrderStatusActive || status == models.OrderStatusComplete
}

// Create inserts a new order owned by the given user.
func (s *OrderService) Create(ctx context.Context, userID int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	if !validStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.writer.Save(ctx, userID, status, total)
	if err != nil {
		logger.Log.Errorw("failed to create order", "user_id", userID, "error", err)
		return nil, err
	}
	return order, nil
}

// List returns all orders.
func (s *OrderService) List(ctx context.Context) ([]models.OrderDB, error) {
	orders, err := s.reader.GetAll(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list orders", "error", err)
		return nil, err
	}
	return orders, nil
}

// Get returns an order by id.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.OrderDB, error) {
	order, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get order", "id", id, "error", err)
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Update replaces the status and total of an order.
func (s *OrderService) Update(ctx context.Context, id int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	if !validStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.writer.Update(ctx, id, status, total)
	if err != nil {
		logger.Log.Errorw("failed to update order", "id", id, "error", err)
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Delete removes an order and, via the store's cascade, its lines.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	affected, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete order", "id", id, "error", err)
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
