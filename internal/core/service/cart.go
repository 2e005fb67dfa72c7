package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/storage"
)

// userChecker reports whether a user exists.
type userChecker interface {
	Exists(ctx context.Context, id string) error
}

// productGetter loads catalog entries.
type productGetter interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// CartService manages per-user carts. Updates to one user's cart are
// serialized; different users proceed in parallel.
type CartService struct {
	carts    *storage.Collection[domain.Cart]
	users    userChecker
	products productGetter
	locks    *keyedMutex
	now      func() time.Time
}

// NewCartService creates a CartService.
func NewCartService(store storage.DocumentStore, users userChecker, products productGetter) *CartService {
	return &CartService{
		carts:    storage.NewCollection[domain.Cart](store, CollectionCarts),
		users:    users,
		products: products,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Get returns the user's cart. A user without a stored cart has an empty one.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// Add increments the quantity of a product in the given size.
func (s *CartService) Add(ctx context.Context, userID, productID, size string) (*domain.Cart, error) {
	size = strings.TrimSpace(size)
	if err := s.checkItem(ctx, userID, productID, size); err != nil {
		return nil, err
	}
	return s.modify(ctx, userID, func(c *domain.Cart) {
		c.Add(productID, size)
	})
}

// Update sets the quantity of a product in the given size. Zero removes it.
func (s *CartService) Update(ctx context.Context, userID, productID, size string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("quantity must not be negative")
	}
	size = strings.TrimSpace(size)
	if quantity > 0 {
		if err := s.checkItem(ctx, userID, productID, size); err != nil {
			return nil, err
		}
	} else if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.modify(ctx, userID, func(c *domain.Cart) {
		c.Set(productID, size, quantity)
	})
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	_, err := s.modify(ctx, userID, func(c *domain.Cart) {
		c.Items = make(map[string]map[string]int)
	})
	return err
}

// modify applies fn to the stored cart under the user's lock.
func (s *CartService) modify(ctx context.Context, userID string, fn func(*domain.Cart)) (*domain.Cart, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(cart)
	cart.UpdatedAt = s.now().UTC()
	if err := s.carts.Put(ctx, userID, cart); err != nil {
		return nil, storeError(err, nil)
	}
	return cart, nil
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err == nil {
		if cart.Items == nil {
			cart.Items = make(map[string]map[string]int)
		}
		return cart, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewCart(userID), nil
	}
	return nil, storeError(err, nil)
}

func (s *CartService) checkUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingArgument.WithDetails("userId")
	}
	return s.users.Exists(ctx, userID)
}

func (s *CartService) checkItem(ctx context.Context, userID, productID, size string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}
	if productID == "" {
		return domain.ErrMissingArgument.WithDetails("itemId")
	}
	if size == "" {
		return domain.ErrMissingArgument.WithDetails("size")
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !p.HasSize(size) {
		return domain.ErrInvalidArgument.WithDetailsf("size %q not offered", size)
	}
	return nil
}
