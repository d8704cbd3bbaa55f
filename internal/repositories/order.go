package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
)

// OrderReadRepository handles order read operations.
type OrderReadRepository struct {
	db *sqlx.DB
}

func NewOrderReadRepository(db *sqlx.DB) *OrderReadRepository {
	return &OrderReadRepository{db: db}
}

// GetAll returns all orders.
func (r *OrderReadRepository) GetAll(ctx context.Context) ([]models.OrderDB, error) {
	const query = `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders
		ORDER BY id
	`

	var orders []models.OrderDB
	err := r.db.SelectContext(ctx, &orders, query)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"result", len(orders),
		"error", err,
	)

	return orders, err
}

// GetByID returns an order by id, or nil if absent.
func (r *OrderReadRepository) GetByID(ctx context.Context, id int64) (*models.OrderDB, error) {
	const query = `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order models.OrderDB
	err := r.db.GetContext(ctx, &order, query, id)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderWriteRepository handles order write operations.
type OrderWriteRepository struct {
	db *sqlx.DB
}

func NewOrderWriteRepository(db *sqlx.DB) *OrderWriteRepository {
	return &OrderWriteRepository{db: db}
}

// Save inserts a new order and returns the created row.
func (r *OrderWriteRepository) Save(ctx context.Context, userID int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	const query = `
		INSERT INTO orders (user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, user_id, status, total, created_at, updated_at
	`

	var order models.OrderDB
	err := r.db.GetContext(ctx, &order, query, userID, status, total)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID, status, total},
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update replaces status and total. Returns nil if the order does not exist.
func (r *OrderWriteRepository) Update(ctx context.Context, id int64, status string, total decimal.Decimal) (*models.OrderDB, error) {
	const query = `
		UPDATE orders
		SET status = $1, total = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, user_id, status, total, created_at, updated_at
	`

	var order models.OrderDB
	err := r.db.GetContext(ctx, &order, query, status, total, id)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{status, total, id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes an order by id and returns the number of affected rows.
// Lines of the order are removed by the store's ON DELETE CASCADE.
func (r *OrderWriteRepository) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM orders WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", query,
		"args", []any{id},
		"result", rowsAffected,
		"error", err,
	)

	return rowsAffected, err
}
