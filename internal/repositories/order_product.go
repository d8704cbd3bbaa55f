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

// TxGetter returns the transaction bound to the context, or nil when the
// request runs outside a transaction.
type TxGetter func(ctx context.Context) *sqlx.Tx

// OrderProductReadRepository handles order line read operations.
// Reads participate in the request transaction when one is present so the
// check-then-write sequence in the service sees its own writes.
type OrderProductReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewOrderProductReadRepository(db *sqlx.DB, txGetter TxGetter) *OrderProductReadRepository {
	return &OrderProductReadRepository{db: db, txGetter: txGetter}
}

func (r *OrderProductReadRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// GetByOrderAndProduct returns the line for the pair, or nil if absent.
func (r *OrderProductReadRepository) GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	const query = `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_products
		WHERE order_id = $1 AND product_id = $2
	`

	var line models.OrderProductDB
	err := sqlx.GetContext(ctx, r.executor(ctx), &line, query, orderID, productID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{orderID, productID},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListByOrder returns all lines of an order joined with the product name.
// An order with no lines yields an empty slice, not an error.
func (r *OrderProductReadRepository) ListByOrder(ctx context.Context, orderID int64) ([]models.OrderProductWithName, error) {
	const query = `
		SELECT op.id, op.order_id, op.product_id, op.quantity, op.price, op.created_at,
		       p.name AS product_name
		FROM order_products op
		JOIN products p ON op.product_id = p.id
		WHERE op.order_id = $1
		ORDER BY op.id
	`

	lines := []models.OrderProductWithName{}
	err := sqlx.SelectContext(ctx, r.executor(ctx), &lines, query, orderID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{orderID},
		"result", len(lines),
		"error", err,
	)

	return lines, err
}

// OrderProductWriteRepository handles order line write operations.
type OrderProductWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewOrderProductWriteRepository(db *sqlx.DB, txGetter TxGetter) *OrderProductWriteRepository {
	return &OrderProductWriteRepository{db: db, txGetter: txGetter}
}

func (r *OrderProductWriteRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Upsert creates the line or, when one already exists for the pair, merges
// into it: quantity grows by the given amount and the snapshot price is
// recomputed as the unit price times the merged quantity. The merge runs in
// the conflict arm of a single statement, so a concurrent add of the same
// pair cannot abort the request transaction with a unique violation.
func (r *OrderProductWriteRepository) Upsert(ctx context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) (*models.OrderProductDB, error) {
	const query = `
		INSERT INTO order_products (order_id, product_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4::numeric * $3, NOW())
		ON CONFLICT (order_id, product_id) DO UPDATE
		SET quantity = order_products.quantity + EXCLUDED.quantity,
		    price = $4::numeric * (order_products.quantity + EXCLUDED.quantity)
		RETURNING id, order_id, product_id, quantity, price, created_at
	`

	var line models.OrderProductDB
	err := sqlx.GetContext(ctx, r.executor(ctx), &line, query, orderID, productID, quantity, unitPrice)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{orderID, productID, quantity, unitPrice},
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Update replaces quantity and snapshot price for the pair.
// Returns nil if no line exists for the pair.
func (r *OrderProductWriteRepository) Update(ctx context.Context, orderID, productID int64, quantity int, price decimal.Decimal) (*models.OrderProductDB, error) {
	const query = `
		UPDATE order_products
		SET quantity = $1, price = $2
		WHERE order_id = $3 AND product_id = $4
		RETURNING id, order_id, product_id, quantity, price, created_at
	`

	var line models.OrderProductDB
	err := sqlx.GetContext(ctx, r.executor(ctx), &line, query, quantity, price, orderID, productID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{quantity, price, orderID, productID},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Delete removes the line for the pair and returns its prior state,
// or nil if no line existed.
func (r *OrderProductWriteRepository) Delete(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	const query = `
		DELETE FROM order_products
		WHERE order_id = $1 AND product_id = $2
		RETURNING id, order_id, product_id, quantity, price, created_at
	`

	var line models.OrderProductDB
	err := sqlx.GetContext(ctx, r.executor(ctx), &line, query, orderID, productID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{orderID, productID},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}
