// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: plain values with no
// inheritance and no knowledge of how they are stored.
package model

import "time"

// DefaultBalance is the starting balance credited to every new account.
const DefaultBalance = 100.0

// User represents a registered marketplace account.
//
// Email is the login identifier and is unique across all users. The password
// is never stored in the clear: PasswordHash holds a bcrypt hash and the
// `json:"-"` tag keeps it out of every API response.
//
// ShippingAddress and PostalCode start empty and are filled in later through
// a profile update.
type User struct {
	ID              string    `json:"id"              db:"id"`
	Username        string    `json:"username"        db:"username"`
	Email           string    `json:"email"           db:"email"`
	PasswordHash    string    `json:"-"               db:"password_hash"`
	ShippingAddress string    `json:"shippingAddress" db:"shipping_address"`
	PostalCode      string    `json:"postalCode"      db:"postal_code"`
	Balance         float64   `json:"balance"         db:"balance"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"       db:"updated_at"`
}
