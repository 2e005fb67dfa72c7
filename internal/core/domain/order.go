package domain

import "time"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

// Order statuses in lifecycle order.
const (
	OrderPlaced         OrderStatus = "Order Placed"
	OrderPacking        OrderStatus = "Packing"
	OrderShipped        OrderStatus = "Shipped"
	OrderOutForDelivery OrderStatus = "Out for delivery"
	OrderDelivered      OrderStatus = "Delivered"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPlaced, OrderPacking, OrderShipped, OrderOutForDelivery, OrderDelivered:
		return true
	}
	return false
}

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentStripe PaymentMethod = "Stripe"
)

// OrderItem is a priced line of an order, copied from the catalog at
// placement time.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Order is a placed order.
type Order struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Items         []OrderItem       `json:"items"`
	Amount        int64             `json:"amount"`
	Address       map[string]string `json:"address"`
	Status        OrderStatus       `json:"status"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Paid          bool              `json:"paid"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Total sums the line totals of the order items.
func Total(items []OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}
