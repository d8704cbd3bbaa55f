package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderProductDB represents an order line: one product in one order.
// Price is a snapshot of unit price times quantity, recomputed from the
// product's current price on every mutation of the line. It is not refreshed
// when the product price changes afterwards.
type OrderProductDB struct {
	LineID    int64           `json:"id" db:"id"`                 // Primary key
	OrderID   int64           `json:"order_id" db:"order_id"`     // Owning order
	ProductID int64           `json:"product_id" db:"product_id"` // Referenced product
	Quantity  int             `json:"quantity" db:"quantity"`     // Positive quantity
	Price     decimal.Decimal `json:"price" db:"price"`           // Snapshot line total
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Creation timestamp
}

// OrderProductWithName is an order line joined with the product name,
// as returned when listing the lines of an order.
type OrderProductWithName struct {
	OrderProductDB
	ProductName string `json:"product_name" db:"product_name"`
}
