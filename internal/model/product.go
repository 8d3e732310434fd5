package model

import (
	"time"
)

// Status is the sale state of a product listing.
type Status string

const (
	// StatusForSale marks a listing that can still be bought.
	StatusForSale Status = "FOR_SALE"
	// StatusSoldOut marks a listing that is no longer available.
	StatusSoldOut Status = "SOLD_OUT"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusForSale || s == StatusSoldOut
}

// Product represents a marketplace listing.
type Product struct {
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Password  string    `json:"password"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// InitMeta sets the creation defaults. The product id is assigned by the caller.
func (p *Product) InitMeta() {
	p.Status = StatusForSale
	// Postgres keeps microseconds, so truncate to get the same value back on read.
	p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
}
