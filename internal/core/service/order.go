package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/messaging"
	"github.com/yndnr/storefront-go/internal/storage"
)

// OrderService places orders from carts and tracks their status.
type OrderService struct {
	orders    *storage.Collection[domain.Order]
	carts     *CartService
	products  productGetter
	publisher messaging.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates an OrderService. A nil publisher drops events.
func NewOrderService(store storage.DocumentStore, carts *CartService, products productGetter, pub messaging.Publisher, logger *slog.Logger) *OrderService {
	if pub == nil {
		pub = messaging.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:    storage.NewCollection[domain.Order](store, CollectionOrders),
		carts:     carts,
		products:  products,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrderRequest contains parameters for placing an order.
type PlaceOrderRequest struct {
	UserID        string
	Address       map[string]string
	PaymentMethod domain.PaymentMethod
}

// Place turns the user's cart into an order priced from the current
// catalog, clears the cart and publishes order.placed.
//
// Items whose product has since been removed are skipped. Payment is not
// captured; every order starts unpaid.
func (s *OrderService) Place(ctx context.Context, req *PlaceOrderRequest) (*domain.Order, error) {
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCOD
	}
	if method != domain.PaymentCOD && method != domain.PaymentStripe {
		return nil, domain.ErrInvalidArgument.WithDetailsf("unknown payment method %q", method)
	}
	if len(req.Address) == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("address")
	}

	unlock := s.carts.locks.lock(req.UserID)
	defer unlock()

	if err := s.carts.checkUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	cart, err := s.carts.load(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	id, err := domain.NewID(domain.OrderIDPrefix)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:            id,
		UserID:        req.UserID,
		Items:         items,
		Amount:        domain.Total(items),
		Address:       req.Address,
		Status:        domain.OrderPlaced,
		PaymentMethod: method,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.orders.Create(ctx, order.ID, order); err != nil {
		return nil, storeError(err, nil)
	}

	cleared := domain.NewCart(req.UserID)
	cleared.UpdatedAt = order.CreatedAt
	if err := s.carts.carts.Put(ctx, req.UserID, cleared); err != nil {
		s.logger.WarnContext(ctx, "clear cart failed", "user_id", req.UserID, "error", err)
	}

	s.publish(ctx, messaging.Event{
		Type:       messaging.EventOrderPlaced,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Amount:     order.Amount,
		Status:     string(order.Status),
		OccurredAt: order.CreatedAt,
	})
	s.logger.InfoContext(ctx, "order placed", "order_id", order.ID, "user_id", order.UserID, "amount", order.Amount)
	return order, nil
}

// buildItems prices cart entries in a stable product/size order.
func (s *OrderService) buildItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, error) {
	productIDs := make([]string, 0, len(cart.Items))
	for id := range cart.Items {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	var items []domain.OrderItem
	for _, pid := range productIDs {
		p, err := s.products.Get(ctx, pid)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		sizes := make([]string, 0, len(cart.Items[pid]))
		for size := range cart.Items[pid] {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		for _, size := range sizes {
			qty := cart.Items[pid][size]
			if qty <= 0 {
				continue
			}
			items = append(items, domain.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Size:      size,
				Quantity:  qty,
				UnitPrice: p.Price,
			})
		}
	}
	return items, nil
}

// UserOrders returns the user's orders, oldest first.
func (s *OrderService) UserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := s.carts.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, func(o *domain.Order) bool {
		return o.UserID == userID
	})
	if err != nil {
		return nil, storeError(err, nil)
	}
	return orders, nil
}

// List returns every order, oldest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, nil)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return orders, nil
}

// UpdateStatus sets an order's status and publishes order.status_changed.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("orderId")
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidOrderStatus.WithDetails(string(status))
	}

	unlock := s.carts.locks.lock(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, storeError(err, domain.ErrOrderNotFound)
	}
	if order.Status == status {
		return order, nil
	}
	order.Status = status
	if err := s.orders.Put(ctx, orderID, order); err != nil {
		return nil, storeError(err, nil)
	}

	s.publish(ctx, messaging.Event{
		Type:       messaging.EventOrderStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(status),
		OccurredAt: s.now().UTC(),
	})
	return order, nil
}

// publish delivers an event. Failures are logged; the order is already
// stored and stays authoritative.
func (s *OrderService) publish(ctx context.Context, ev messaging.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish event failed", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
