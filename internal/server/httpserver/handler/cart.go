package handler

import (
	"net/http"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
)

// CartGroup serves /api/cart.
type CartGroup struct {
	*Router
	carts *service.CartService
}

// NewCartGroup creates the cart route group.
func NewCartGroup(carts *service.CartService) *CartGroup {
	g := &CartGroup{Router: NewRouter(), carts: carts}
	g.Handle("POST /get", g.get)
	g.Handle("POST /add", g.add)
	g.Handle("POST /update", g.update)
	return g
}

func (g *CartGroup) get(w http.ResponseWriter, r *http.Request) error {
	var req UserRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	cart, err := g.carts.Get(r.Context(), req.UserID)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, cart)
	return nil
}

func (g *CartGroup) add(w http.ResponseWriter, r *http.Request) error {
	var req CartItemRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	cart, err := g.carts.Add(r.Context(), req.UserID, req.ItemID, req.Size)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, cart)
	return nil
}

func (g *CartGroup) update(w http.ResponseWriter, r *http.Request) error {
	var req CartItemRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return domain.ErrMissingArgument.WithDetails("quantity")
	}
	cart, err := g.carts.Update(r.Context(), req.UserID, req.ItemID, req.Size, *req.Quantity)
	if err != nil {
		return err
	}
	WriteJSON(w, r, http.StatusOK, cart)
	return nil
}
