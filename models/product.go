package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalogue entry
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Images      []string   `json:"images" db:"images"`
	Price       float64    `json:"price" db:"price"`
	Stock       int        `json:"stock" db:"stock"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active Product
func NewProduct(name string, price float64, stock int) *Product {
	now := time.Now()
	return &Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		Images:    []string{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnerID returns the creator of the product
func (p *Product) OwnerID() string {
	if p == nil || p.CreatedBy == nil {
		return ""
	}
	return p.CreatedBy.String()
}

// InStock reports whether the product can be ordered
func (p *Product) InStock() bool {
	return p.IsActive && p.Stock > 0
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Search     string
	IsActive   *bool
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

// DynamicSetting is a node of the admin-managed settings tree
type DynamicSetting struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the DynamicSetting model
func (DynamicSetting) TableName() string {
	return "dynamic_settings"
}
