package domain

import "time"

// Cart holds item quantities for a single user.
// Items is keyed by product ID, then by size.
type Cart struct {
	UserID    string                    `json:"user_id"`
	Items     map[string]map[string]int `json:"items"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// NewCart returns an empty cart for the user.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  make(map[string]map[string]int),
	}
}

// Add increments the quantity of a product/size pair by one.
func (c *Cart) Add(productID, size string) {
	if c.Items == nil {
		c.Items = make(map[string]map[string]int)
	}
	sizes, ok := c.Items[productID]
	if !ok {
		sizes = make(map[string]int)
		c.Items[productID] = sizes
	}
	sizes[size]++
}

// Set sets the quantity of a product/size pair. Zero removes the entry.
func (c *Cart) Set(productID, size string, quantity int) {
	if quantity <= 0 {
		if sizes, ok := c.Items[productID]; ok {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(c.Items, productID)
			}
		}
		return
	}
	if c.Items == nil {
		c.Items = make(map[string]map[string]int)
	}
	sizes, ok := c.Items[productID]
	if !ok {
		sizes = make(map[string]int)
		c.Items[productID] = sizes
	}
	sizes[size] = quantity
}

// Count returns the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, sizes := range c.Items {
		for _, q := range sizes {
			n += q
		}
	}
	return n
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool {
	return c.Count() == 0
}
