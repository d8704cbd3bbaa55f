package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDB represents a product record in the database.
// Price is the authoritative unit price; order lines snapshot it at write time.
type ProductDB struct {
	ProductID int64           `json:"id" db:"id"`                 // Primary key
	Name      string          `json:"name" db:"name"`             // Display name
	Price     decimal.Decimal `json:"price" db:"price"`           // Unit price, non-negative
	Category  *string         `json:"category" db:"category"`     // Optional category
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Creation timestamp
}
