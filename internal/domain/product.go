package domain

import (
	"time"
)

// Product is the catalog read model returned by search and detail lookups.
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Rating      *float64   `json:"rating,omitempty"`
	OrderCount  int64      `json:"order_count"`
	ViewCount   int64      `json:"view_count"`
	IsActive    bool       `json:"is_active"`
	CategoryID  *string    `json:"category_id,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// InStock reports whether the product has any units available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Category groups products in the catalog.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
