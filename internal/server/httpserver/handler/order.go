package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
)

// OrderGroup serves /api/order.
type OrderGroup struct {
	*Router
	orders *service.OrderService
}

// NewOrderGroup creates the order route group.
func NewOrderGroup(orders *service.OrderService) *OrderGroup {
	g := &OrderGroup{Router: NewRouter(), orders: orders}
	g.Handle("POST /place", g.place)
	g.Handle("POST /userorders", g.userOrders)
	g.Handle("GET /list", g.list)
	g.Handle("POST /status", g.status)
	return g
}

func (g *OrderGroup) place(w http.ResponseWriter, r *http.Request) error {
	var req PlaceOrderRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	order, err := g.orders.Place(r.Context(), &service.PlaceOrderRequest{
		UserID:        req.UserID,
		Address:       flattenAddress(req.Address),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusCreated, order)
	return nil
}

func (g *OrderGroup) userOrders(w http.ResponseWriter, r *http.Request) error {
	var req UserRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	orders, err := g.orders.UserOrders(r.Context(), req.UserID)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, orders)
	return nil
}

func (g *OrderGroup) list(w http.ResponseWriter, r *http.Request) error {
	orders, err := g.orders.List(r.Context())
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, orders)
	return nil
}

func (g *OrderGroup) status(w http.ResponseWriter, r *http.Request) error {
	var req OrderStatusRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	order, err := g.orders.UpdateStatus(r.Context(), req.OrderID, domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, order)
	return nil
}

// flattenAddress renders address values as strings; clients send zip codes
// and phone numbers as either strings or numbers.
func flattenAddress(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case nil:
			continue
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
