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

// ProductReadRepository handles product read operations.
type ProductReadRepository struct {
	db *sqlx.DB
}

func NewProductReadRepository(db *sqlx.DB) *ProductReadRepository {
	return &ProductReadRepository{db: db}
}

// GetAll returns all products.
func (r *ProductReadRepository) GetAll(ctx context.Context) ([]models.ProductDB, error) {
	const query = `
		SELECT id, name, price, category, created_at
		FROM products
		ORDER BY id
	`

	var products []models.ProductDB
	err := r.db.SelectContext(ctx, &products, query)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"result", len(products),
		"error", err,
	)

	return products, err
}

// GetByID returns a product by id, or nil if absent.
func (r *ProductReadRepository) GetByID(ctx context.Context, id int64) (*models.ProductDB, error) {
	const query = `
		SELECT id, name, price, category, created_at
		FROM products
		WHERE id = $1
	`

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, id)

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
	return &product, nil
}

// ProductWriteRepository handles product write operations.
type ProductWriteRepository struct {
	db *sqlx.DB
}

func NewProductWriteRepository(db *sqlx.DB) *ProductWriteRepository {
	return &ProductWriteRepository{db: db}
}

// Save inserts a new product and returns the created row.
func (r *ProductWriteRepository) Save(ctx context.Context, name string, price decimal.Decimal, category *string) (*models.ProductDB, error) {
	const query = `
		INSERT INTO products (name, price, category, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, price, category, created_at
	`

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, name, price, category)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{name, price, category},
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update applies a partial update: nil fields keep their current value.
// Returns nil if the product does not exist.
func (r *ProductWriteRepository) Update(ctx context.Context, id int64, name *string, price *decimal.Decimal, category *string) (*models.ProductDB, error) {
	const query = `
		UPDATE products
		SET name = COALESCE($1, name),
		    price = COALESCE($2, price),
		    category = COALESCE($3, category)
		WHERE id = $4
		RETURNING id, name, price, category, created_at
	`

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, name, price, category, id)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{name, price, category, id},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a product by id and returns the number of affected rows.
func (r *ProductWriteRepository) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM products WHERE id = $1`

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
