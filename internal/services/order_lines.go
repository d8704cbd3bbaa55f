package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
)

// Error variables
var (
	ErrOrderNotActive  = errors.New("order is not active")
	ErrLineNotFound    = errors.New("order line not found")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// OrderGetter fetches a single order.
type OrderGetter interface {
	GetByID(ctx context.Context, id int64) (*models.OrderDB, error)
}

// ProductGetter fetches a single product.
type ProductGetter interface {
	GetByID(ctx context.Context, id int64) (*models.ProductDB, error)
}

// LineReader defines read operations for order lines.
type LineReader interface {
	GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.OrderProductWithName, error)
}

// LineWriter defines write operations for order lines.
type LineWriter interface {
	Upsert(ctx context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) (*models.OrderProductDB, error)
	Update(ctx context.Context, orderID, productID int64, quantity int, price decimal.Decimal) (*models.OrderProductDB, error)
	Delete(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// OrderLineService manages the products of an order.
//
// A line's price is a snapshot: on every mutation it is recomputed as the
// product's current unit price times the full quantity, never accumulated
// from the previous snapshot. Repeated adds with a product price change in
// between therefore cannot drift. A product price change after the last
// mutation does not rewrite existing lines. The manager never touches
// orders.total.
type OrderLineService struct {
	orders      OrderGetter
	products    ProductGetter
	lineReader  LineReader
	lineWriter  LineWriter
	kafkaWriter KafkaWriter
}

// NewOrderLineService creates a new OrderLineService. kafkaWriter may be nil.
func NewOrderLineService(
	orders OrderGetter,
	products ProductGetter,
	lineReader LineReader,
	lineWriter LineWriter,
	kafkaWriter KafkaWriter,
) *OrderLineService {
	return &OrderLineService{
		orders:      orders,
		products:    products,
		lineReader:  lineReader,
		lineWriter:  lineWriter,
		kafkaWriter: kafkaWriter,
	}
}

// publishLineEvent publishes a line mutation event to Kafka, keyed by order id.
func (s *OrderLineService) publishLineEvent(ctx context.Context, eventType string, line *models.OrderProductDB) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "type", eventType, "order_id", line.OrderID)
		return
	}

	event := models.LineEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Type:      eventType,
		OrderID:   line.OrderID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Price:     line.Price.String(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal line event", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(line.OrderID, 10)),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish line event", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("line event published", "event_id", event.EventID, "type", eventType, "order_id", line.OrderID)
	}
}

// checkOrderActive returns the order if it exists and is active.
func (s *OrderLineService) checkOrderActive(ctx context.Context, orderID int64) (*models.OrderDB, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		logger.Log.Errorw("failed to fetch order", "order_id", orderID, "error", err)
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusActive {
		return nil, ErrOrderNotActive
	}
	return order, nil
}

// getProduct returns the product or ErrProductNotFound.
func (s *OrderLineService) getProduct(ctx context.Context, productID int64) (*models.ProductDB, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		logger.Log.Errorw("failed to fetch product", "product_id", productID, "error", err)
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// AddLine adds a product to an active order. A repeated add for the same
// pair merges into the existing line: quantity grows by the given amount and
// the snapshot price is recomputed from the current unit price times the new
// total quantity. The merge happens in the conflict arm of the store's
// upsert, so a concurrent add of the same pair never leaves a failed
// statement inside the request transaction.
func (s *OrderLineService) AddLine(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderProductDB, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.checkOrderActive(ctx, orderID); err != nil {
		return nil, err
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	line, err := s.lineWriter.Upsert(ctx, orderID, productID, quantity, product.Price)
	if err != nil {
		logger.Log.Errorw("failed to upsert order line", "order_id", orderID, "product_id", productID, "error", err)
		return nil, err
	}

	s.publishLineEvent(ctx, models.LineEventAdded, line)
	return line, nil
}

// GetLinesForOrder returns the lines of an order joined with product names.
// An order with no lines yields an empty slice.
func (s *OrderLineService) GetLinesForOrder(ctx context.Context, orderID int64) ([]models.OrderProductWithName, error) {
	lines, err := s.lineReader.ListByOrder(ctx, orderID)
	if err != nil {
		logger.Log.Errorw("failed to list order lines", "order_id", orderID, "error", err)
		return nil, err
	}
	return lines, nil
}

// GetLine returns the line for the pair, or ErrLineNotFound when absent.
// Absence is an expected outcome, not a store failure.
func (s *OrderLineService) GetLine(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	line, err := s.lineReader.GetByOrderAndProduct(ctx, orderID, productID)
	if err != nil {
		logger.Log.Errorw("failed to get order line", "order_id", orderID, "product_id", productID, "error", err)
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}
	return line, nil
}

// UpdateQuantity sets the quantity of an existing line. Zero or negative
// quantity is rejected, never treated as an implicit removal. The snapshot
// price is recomputed from the product's current unit price.
func (s *OrderLineService) UpdateQuantity(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderProductDB, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	newPrice := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	line, err := s.lineWriter.Update(ctx, orderID, productID, quantity, newPrice)
	if err != nil {
		logger.Log.Errorw("failed to update order line", "order_id", orderID, "product_id", productID, "error", err)
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	s.publishLineEvent(ctx, models.LineEventUpdated, line)
	return line, nil
}

// RemoveLine deletes the line for the pair and returns its prior state.
// A second removal of the same pair fails with ErrLineNotFound.
func (s *OrderLineService) RemoveLine(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	line, err := s.lineWriter.Delete(ctx, orderID, productID)
	if err != nil {
		logger.Log.Errorw("failed to delete order line", "order_id", orderID, "product_id", productID, "error", err)
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	s.publishLineEvent(ctx, models.LineEventRemoved, line)
	return line, nil
}
