package models

import "time"

// UserDB represents a user record in the database.
type UserDB struct {
	UserID       int64     `json:"id" db:"id"`                 // Primary key
	FirstName    string    `json:"firstname" db:"firstname"`   // Given name
	LastName     string    `json:"lastname" db:"lastname"`     // Family name
	Email        string    `json:"email" db:"email"`           // Unique email
	PasswordHash string    `json:"-" db:"password_hash"`       // Peppered bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}
