package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values. An order carries exactly one status at a time.
const (
	OrderStatusActive   = "active"
	OrderStatusComplete = "complete"
)

// OrderDB represents an order record in the database.
type OrderDB struct {
	OrderID   int64           `json:"id" db:"id"`                 // Primary key
	UserID    int64           `json:"user_id" db:"user_id"`       // Owning user
	Status    string          `json:"status" db:"status"`         // "active" or "complete"
	Total     decimal.Decimal `json:"total" db:"total"`           // Order total, maintained by the caller
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"` // Last update timestamp
}
