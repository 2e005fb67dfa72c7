package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry.
//
// Price is expressed in minor currency units.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	Sizes       []string  `json:"sizes"`
	Bestseller  bool      `json:"bestseller"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks required product fields.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrProductValidation.WithDetails("name is required")
	case p.Price < 0:
		return ErrProductValidation.WithDetails("price must not be negative")
	case strings.TrimSpace(p.Category) == "":
		return ErrProductValidation.WithDetails("category is required")
	}
	return nil
}

// HasSize reports whether the product is offered in the given size.
// Products without declared sizes accept any size.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
